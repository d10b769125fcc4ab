package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginUsername  string
	loginStoreCode string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a username and store code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if a.auth.IsAuthValid(cmd.Context()) {
			creds := a.store.Load(cmd.Context())
			fmt.Printf("Already logged in as %s. Use 'evidence logout' first.\n", creds.Profile.Username)
			return nil
		}

		result, err := a.auth.Login(cmd.Context(), loginUsername, loginStoreCode)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Printf("Logged in as %s\n", result.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginStoreCode, "storecode", "s", "", "store code")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("storecode")
}
