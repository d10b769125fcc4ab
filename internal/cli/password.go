package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	otpEmail      string
	resetEmail    string
	resetOTP      string
	resetPassword string
)

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password-reset OTP by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.auth.RequestOTP(cmd.Context(), otpEmail); err != nil {
			return fmt.Errorf("OTP request failed: %w", err)
		}
		fmt.Printf("OTP sent to %s\n", otpEmail)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset the password with an emailed OTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.auth.ResetPassword(cmd.Context(), resetEmail, resetOTP, resetPassword); err != nil {
			return fmt.Errorf("password reset failed: %w", err)
		}
		fmt.Println("Password reset successful.")
		return nil
	},
}

func init() {
	forgotPasswordCmd.Flags().StringVarP(&otpEmail, "email", "e", "", "account email")
	forgotPasswordCmd.MarkFlagRequired("email")

	resetPasswordCmd.Flags().StringVarP(&resetEmail, "email", "e", "", "account email")
	resetPasswordCmd.Flags().StringVarP(&resetOTP, "otp", "o", "", "one-time password from the reset email")
	resetPasswordCmd.Flags().StringVarP(&resetPassword, "new-password", "p", "", "new password")
	resetPasswordCmd.MarkFlagRequired("email")
	resetPasswordCmd.MarkFlagRequired("otp")
	resetPasswordCmd.MarkFlagRequired("new-password")
}
