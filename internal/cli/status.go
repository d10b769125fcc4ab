package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := a.store.Load(cmd.Context())
		if !creds.HasToken() {
			fmt.Println("Not logged in. Run 'evidence login' to authenticate.")
			return nil
		}

		fmt.Printf("Server: %s\n", a.cfg.API.BaseURL)
		if creds.Profile != nil {
			fmt.Printf("Username: %s\n", creds.Profile.Username)
			fmt.Printf("Store code: %s\n", creds.Profile.StoreCode)
		}

		// Liveness is server-confirmed: the stored credentials are replayed
		// against the validation endpoint.
		if a.auth.IsAuthValid(cmd.Context()) {
			fmt.Println("Session: valid")
		} else {
			fmt.Println("Session: expired or invalid. Run 'evidence login' again.")
		}
		return nil
	},
}
