package commands

import (
	"context"
	"fmt"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewClientsCmd creates the clients command with list, approve, and reject
// subcommands. Decisions made here skip the notification queue; use the API
// when the client should be emailed.
func NewClientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage portal client accounts",
	}
	cmd.AddCommand(newClientsListCmd())
	cmd.AddCommand(newClientsDecisionCmd("approve", models.ClientStatusActive))
	cmd.AddCommand(newClientsDecisionCmd("reject", models.ClientStatusRejected))
	return cmd
}

func newClientsListCmd() *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List client accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openClientRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			var clients []*models.Client
			if pendingOnly {
				clients, err = repo.Pending(context.Background())
			} else {
				clients, _, err = repo.List(context.Background(), nil, "", 1, 100)
			}
			if err != nil {
				return fmt.Errorf("list clients: %w", err)
			}
			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}
			for _, c := range clients {
				name := ""
				if c.FullName != nil {
					name = *c.FullName
				}
				fmt.Printf("%s  %-20s  %-30s  %s\n", c.ID, c.Status, c.Email, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show clients awaiting approval")
	return cmd
}

func newClientsDecisionCmd(verb string, status models.ClientStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <client-id>",
		Short: fmt.Sprintf("%s a client account", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid client ID %q", args[0])
			}

			repo, closeDB, err := openClientRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			client, err := repo.SetStatus(context.Background(), id, status)
			if err != nil {
				return fmt.Errorf("%s client: %w", verb, err)
			}
			fmt.Printf("Client %s is now %s.\n", client.Email, client.Status)
			return nil
		},
	}
}

func openClientRepo() (*database.ClientRepository, func(), error) {
	db, closeDB, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	return database.NewClientRepository(db), closeDB, nil
}
