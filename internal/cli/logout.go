package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := a.store.Load(cmd.Context())
		if !creds.HasToken() {
			fmt.Println("Not currently logged in.")
			return nil
		}

		if err := a.auth.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}

		fmt.Println("Logged out successfully.")
		return nil
	},
}
