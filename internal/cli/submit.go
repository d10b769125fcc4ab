package cli

import (
	"fmt"
	"strings"

	"github.com/fieldtrace/evidence-cli/internal/evidence"
	"github.com/fieldtrace/evidence-cli/internal/geo"
	"github.com/spf13/cobra"
)

var (
	submitElementID   string
	submitTaskID      string
	submitStoreCode   string
	submitPlanID      string
	submitTemplateID  string
	submitEvidence    string
	submitReason      string
	submitImages      []string
	submitLatitude    float64
	submitLongitude   float64
	submitHasPosition bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit evidence for a task",
	Long: `Submit evidence for a merchandising task.

With --evidence=Yes, attach one or more images with --image (repeatable).
With --evidence=No, give a non-completion reason with --reason. Valid reasons:
  ` + strings.Join(evidence.Reasons, "\n  "),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		storeCode := submitStoreCode
		if storeCode == "" {
			if creds := a.store.Load(ctx); creds.Profile != nil {
				storeCode = creds.Profile.StoreCode
			}
		}

		locator := a.locator
		if submitHasPosition {
			locator = geo.Static{Latitude: submitLatitude, Longitude: submitLongitude}
		}

		session := evidence.NewSession(evidence.TaskRef{
			ElementID:           submitElementID,
			StoreCode:           storeCode,
			TaskID:              submitTaskID,
			MediaPlanID:         submitPlanID,
			ExecutionTemplateID: submitTemplateID,
		}, a.cfg.Evidence.MaxImages, a.cfg.Location.Timeout, locator, a.logger)

		switch strings.ToLower(submitEvidence) {
		case "yes":
			session.SetEvidence(evidence.EvidenceYes)
		case "no":
			session.SetEvidence(evidence.EvidenceNo)
			session.SetReason(submitReason)
		}

		if len(submitImages) > 0 {
			refs := make([]evidence.ImageRef, 0, len(submitImages))
			for _, path := range submitImages {
				refs = append(refs, evidence.ImageRef{URI: path})
			}
			accepted, dropped := session.AddImages(ctx, refs)
			if dropped > 0 {
				fmt.Printf("Warning: only %d images allowed per submission, %d dropped.\n",
					a.cfg.Evidence.MaxImages, dropped)
			}
			fmt.Printf("Attached %d image(s).\n", accepted)
		}

		receipt, err := a.submitter.Submit(ctx, session)
		if err != nil {
			return fmt.Errorf("submission failed: %w", err)
		}

		fmt.Printf("Evidence submitted (id %s).\n", receipt.ID)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitElementID, "element-id", "", "element id of the task")
	submitCmd.Flags().StringVar(&submitTaskID, "task-id", "", "task id")
	submitCmd.Flags().StringVar(&submitStoreCode, "store-code", "", "store code (defaults to the signed-in store)")
	submitCmd.Flags().StringVar(&submitPlanID, "plan-id", "", "media plan id")
	submitCmd.Flags().StringVar(&submitTemplateID, "execution-template-id", "", "execution template id")
	submitCmd.Flags().StringVar(&submitEvidence, "evidence", "", "whether valid evidence is available (Yes or No)")
	submitCmd.Flags().StringVar(&submitReason, "reason", "", "non-completion reason (required with --evidence=No)")
	submitCmd.Flags().StringArrayVar(&submitImages, "image", nil, "image file to attach (repeatable)")
	submitCmd.Flags().Float64Var(&submitLatitude, "latitude", 0, "capture latitude")
	submitCmd.Flags().Float64Var(&submitLongitude, "longitude", 0, "capture longitude")
	submitCmd.MarkFlagRequired("element-id")
	submitCmd.MarkFlagRequired("task-id")
	submitCmd.MarkFlagRequired("evidence")

	submitCmd.PreRun = func(cmd *cobra.Command, args []string) {
		submitHasPosition = cmd.Flags().Changed("latitude") || cmd.Flags().Changed("longitude")
	}
}
