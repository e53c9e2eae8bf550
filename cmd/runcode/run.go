package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/code-compiler/internal/config"
	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/local"
	"github.com/sakif/code-compiler/pkg/client"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Compile and run a snippet",
		Long: `Compile and run a snippet and print its output.

Code can be provided via:
  - File argument: runcode run Hello.java
  - Inline flag:   runcode run -l python -c 'print(1+1)'
  - Stdin:         echo 'print(1+1)' | runcode run -l python

On a compile or runtime error the diagnostics are printed and the exit
status is 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringP("lang", "l", "", "Language: "+languageList()+" (default: from file extension)")
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().StringArrayP("input", "i", nil, "Line written to the program's stdin, C# only (repeatable)")
	cmd.Flags().String("entry-point", "", "Java class to run (default: detected from the source)")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	langFlag, _ := cmd.Flags().GetString("lang")
	input, _ := cmd.Flags().GetStringArray("input")
	entryPoint, _ := cmd.Flags().GetString("entry-point")

	var filename string
	switch {
	case code != "":
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		code = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		code = string(data)
	}
	if code == "" {
		return errors.New("no code given: pass a file, --code or pipe it on stdin")
	}

	lang, err := detectLanguage(langFlag, filename)
	if err != nil {
		return err
	}

	if c := remoteClient(cmd); c != nil {
		res, err := c.Execute(cmd.Context(), client.Request{
			Language:   string(lang),
			Code:       code,
			Input:      input,
			EntryPoint: entryPoint,
		})
		if err != nil {
			return err
		}
		return report(cmd, res.Output, executor.ErrorKind(res.Kind))
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	execCfg, err := cfg.Executor()
	if err != nil {
		return err
	}
	exec, err := local.New(execCfg, newLogger(cmd, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	res, err := exec.Execute(cmd.Context(), executor.ExecutionRequest{
		Language:   string(lang),
		Code:       code,
		Input:      input,
		EntryPoint: entryPoint,
	})
	if err != nil {
		return err
	}
	return report(cmd, res.Output, res.Kind)
}

// report prints the output and turns a failed execution into a non-nil
// error so the exit status reflects it.
func report(cmd *cobra.Command, output string, kind executor.ErrorKind) error {
	if kind == executor.KindNone {
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), output)
	if output != "" && output[len(output)-1] != '\n' {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return fmt.Errorf("execution failed: %s", kind)
}
