package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/code-compiler/internal/executor/local"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Long: `List the supported languages. Locally, languages whose toolchain is
missing from PATH are flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if c := remoteClient(cmd); c != nil {
				langs, err := c.Languages(cmd.Context())
				if err != nil {
					return err
				}
				for _, l := range langs {
					fmt.Fprintln(out, l)
				}
				return nil
			}

			exec, err := local.New(local.DefaultConfig(), newLogger(cmd, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			missing := exec.MissingToolchains()
			for _, l := range exec.Languages() {
				if bins, ok := missing[l]; ok {
					fmt.Fprintf(out, "%s\t(missing: %v)\n", l, bins)
					continue
				}
				fmt.Fprintln(out, l)
			}
			return nil
		},
	}
}
