package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/code-compiler/internal/auth"
	"github.com/sakif/code-compiler/internal/repository/sqlite"
	"github.com/sakif/code-compiler/internal/service"
)

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage API clients of a server database",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a client and print its credentials",
		Long: `Register an API client in the server database and print its ID and
secret. The secret is shown once; only its hash is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			name, _ := cmd.Flags().GetString("name")

			db, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			// Registration never issues tokens, so no token service is needed.
			clients := service.NewClientService(db.Clients(), auth.NewSecretHasher(), nil,
				slog.New(slog.NewTextHandler(io.Discard, nil)))
			c, secret, err := clients.Register(cmd.Context(), name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "client_id:     %s\n", c.ID)
			fmt.Fprintf(out, "client_secret: %s\n", secret)
			return nil
		},
	}
	add.Flags().String("db", "data/compiler.db", "Path to the server's SQLite database")
	add.Flags().String("name", "", "Human-readable client name")

	cmd.AddCommand(add)
	return cmd
}
