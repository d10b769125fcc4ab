package dashboard

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/gateway"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/sirupsen/logrus"
)

const pendingTasksEndpoint = "PlanDetails/GetAllPendingTasks"

// Task is a raw pending-task row as returned by the server.
type Task struct {
	ID                    string `json:"id"`
	ElementID             string `json:"element_id"`
	ElementName           string `json:"element_name"`
	SubTypeName           string `json:"subtype_name"`
	BrandName             string `json:"brandname"`
	ExecutionTemplateID   string `json:"executiontemplateid"`
	ExecutionTemplateName string `json:"executiontemplatename"`
	MediaPlanID           string `json:"mediaPlanId"`
	MediaPlanName         string `json:"mediaplanname"`
	EndDate               string `json:"enddate"`
	StoreCode             string `json:"storecode"`
	TaskID                string `json:"taskid"`
}

// PendingTasks holds the two parallel task lists the dashboard endpoint
// returns: paid-visibility rows in Table, store-activity rows in Table1.
type PendingTasks struct {
	Table  []Task `json:"table"`
	Table1 []Task `json:"table1"`
}

// Summary is a task row shaped for display.
type Summary struct {
	ID          string
	ElementName string
	SubTypeName string
	BrandName   string
	Execution   string
	PlanName    string
	PlanEndDate string
	MediaPlanID string
	StoreCode   string
}

// Service fetches dashboard data for the signed-in store.
type Service struct {
	gw     *gateway.Client
	store  credstore.Store
	logger *logrus.Logger
}

// New creates a dashboard service.
func New(gw *gateway.Client, store credstore.Store, logger *logrus.Logger) *Service {
	return &Service{gw: gw, store: store, logger: logger}
}

// Fetch returns all pending tasks for the stored profile's store code. A
// missing profile fails locally without a network call.
func (s *Service) Fetch(ctx context.Context) (PendingTasks, error) {
	creds := s.store.Load(ctx)
	if !creds.Profile.Complete() {
		return PendingTasks{}, apierrors.NewAppError(apierrors.CodeValidationError,
			"user data not found, please log in again", nil)
	}

	endpoint := fmt.Sprintf("%s?storecode=%s", pendingTasksEndpoint, url.QueryEscape(creds.Profile.StoreCode))
	res := s.gw.Fetch(ctx, endpoint, gateway.Options{})
	if !res.Success {
		code := apierrors.CodeHTTPError
		if res.IsNetworkError {
			code = apierrors.CodeNetworkError
		}
		return PendingTasks{}, apierrors.NewAppError(code,
			"failed to fetch dashboard data: "+res.Error, nil)
	}

	var tasks PendingTasks
	if err := res.DecodeData(&tasks); err != nil {
		return PendingTasks{}, apierrors.NewAppError(apierrors.CodeInternalError,
			"unexpected dashboard response", err)
	}

	s.logger.WithFields(logrus.Fields{
		"paid_visibility": len(tasks.Table),
		"store_activity":  len(tasks.Table1),
	}).Debug("Fetched pending tasks")

	return tasks, nil
}

// Transform shapes raw task rows for display, substituting placeholders for
// missing fields.
func Transform(rows []Task) []Summary {
	summaries := make([]Summary, 0, len(rows))
	for i, row := range rows {
		s := Summary{
			ID:          row.ID,
			ElementName: row.ElementName,
			SubTypeName: row.SubTypeName,
			BrandName:   row.BrandName,
			Execution:   row.ExecutionTemplateName,
			PlanName:    row.MediaPlanName,
			PlanEndDate: row.EndDate,
			MediaPlanID: row.MediaPlanID,
			StoreCode:   row.StoreCode,
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("item-%d", i+1)
		}
		if s.ElementName == "" {
			s.ElementName = fmt.Sprintf("Element-%d", i+1)
		}
		if s.SubTypeName == "" {
			s.SubTypeName = "Unknown Type"
		}
		if s.BrandName == "" {
			s.BrandName = "Unknown Brand"
		}
		if s.Execution == "" {
			s.Execution = "Monthly"
		}
		if s.PlanName == "" {
			s.PlanName = fmt.Sprintf("Plan-%d", i+1)
		}
		if s.PlanEndDate == "" {
			s.PlanEndDate = "N/A"
		}
		summaries = append(summaries, s)
	}
	return summaries
}
