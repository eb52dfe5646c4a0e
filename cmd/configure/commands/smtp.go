package commands

import (
	"fmt"

	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/imail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSMTPCmd creates the smtp command for exercising the configured relay
func NewSMTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smtp",
		Short: "Test the SMTP relay configuration",
	}
	cmd.AddCommand(newSMTPTestCmd())
	return cmd
}

func newSMTPTestCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test message through the configured relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.SMTPConfigured() {
				return fmt.Errorf("SMTP_HOST and SMTP_PORT must be set")
			}

			sender := imail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
			service := imail.NewService(sender, cfg.SMTPFrom, zap.NewNop())

			report, err := service.Send(&imail.SendRequest{
				To:      []string{to},
				Subject: "Jasper portal SMTP test",
				Text:    "The relay configuration works.",
			})
			if err != nil {
				return fmt.Errorf("send test message: %w", err)
			}
			if !report.Success {
				return fmt.Errorf("delivery failed: %s", report.Results[0].Error)
			}
			fmt.Printf("Test message sent to %s (tracking ID %s).\n", to, report.TrackingID)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address (required)")
	return cmd
}
