package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/bakiel/jasper-portal-api/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewHashPasswordCmd creates the hash-password command. The output goes into
// ADMIN_PASSWORD_HASH so the plaintext never has to live in the environment.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password for ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if len(raw) == 0 {
				return fmt.Errorf("password must not be empty")
			}

			hash, err := auth.HashPassword(string(raw))
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Println(hash)
			return nil
		},
	}
}
