package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	signupUsername  string
	signupEmail     string
	signupStoreCode string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.auth.Register(cmd.Context(), signupUsername, signupEmail, signupStoreCode); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Registered %s\n", signupUsername)
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVarP(&signupUsername, "username", "u", "", "username")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "email address")
	signupCmd.Flags().StringVarP(&signupStoreCode, "storecode", "s", "", "store code")
	signupCmd.MarkFlagRequired("username")
	signupCmd.MarkFlagRequired("email")
	signupCmd.MarkFlagRequired("storecode")
}
