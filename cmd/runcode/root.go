package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/pkg/client"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "runcode",
		Short: "Compile and run Java, C++, C#, JavaScript and Python snippets",
		Long: `runcode - compile and run code snippets.

Snippets run with the toolchains on this machine (javac/java, g++, csc,
node, python) unless --server points at a code compiler server. Local runs
read the same CONFIG_FILE and environment variables as the server.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("server", "", "Base URL of a code compiler server (default: run locally)")
	root.PersistentFlags().String("client-id", "", "OAuth2 client ID for --server")
	root.PersistentFlags().String("client-secret", "", "OAuth2 client secret for --server (default: $RUNCODE_CLIENT_SECRET)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log executor activity to stderr")

	root.AddCommand(newRunCmd(), newLanguagesCmd(), newClientCmd())
	return root
}

// remoteClient returns nil when --server is not set.
func remoteClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		return nil
	}
	id, _ := cmd.Flags().GetString("client-id")
	secret, _ := cmd.Flags().GetString("client-secret")
	if secret == "" {
		secret = os.Getenv("RUNCODE_CLIENT_SECRET")
	}

	var opts []client.Option
	if id != "" {
		opts = append(opts, client.WithClientCredentials(id, secret))
	}
	return client.New(server, opts...)
}

func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// detectLanguage picks the language from the --lang flag, falling back to
// the file extension.
func detectLanguage(flag, filename string) (executor.Language, error) {
	if flag != "" {
		return executor.ParseLanguage(flag)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".java":
		return executor.Java, nil
	case ".cpp", ".cc", ".cxx":
		return executor.Cpp, nil
	case ".cs":
		return executor.CSharp, nil
	case ".js", ".mjs":
		return executor.JavaScript, nil
	case ".py":
		return executor.Python, nil
	}
	return "", fmt.Errorf("language required: use --lang with one of %s", languageList())
}

func languageList() string {
	names := make([]string, len(executor.Languages))
	for i, l := range executor.Languages {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
