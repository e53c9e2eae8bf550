package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/process"
	"github.com/sakif/code-compiler/internal/executor/workspace"
)

// inWorkspace runs fn inside a fresh workspace that is removed afterwards.
// Failures that are not already tagged come from the workspace itself.
func (e *Executor) inWorkspace(fn func(ws *workspace.Workspace) (string, error)) (string, error) {
	var out string
	err := workspace.With(e.config.WorkspaceRoot, func(ws *workspace.Workspace) error {
		var err error
		out, err = fn(ws)
		return err
	})
	if err != nil {
		var tagged *executor.Error
		if errors.As(err, &tagged) {
			return "", tagged
		}
		e.logger.Error("workspace failure", slog.String("error", err.Error()))
		return "", executor.Failure(executor.KindWorkspace, err.Error(), err)
	}
	return out, nil
}

// writeSource normalizes code and writes it to name inside ws.
func writeSource(ws *workspace.Workspace, name, code string) (string, error) {
	path, err := ws.WriteFile(name, normalizeSource(code))
	if err != nil {
		return "", executor.Failure(executor.KindWorkspace, err.Error(), err)
	}
	return path, nil
}

// compile runs a compiler. A zero exit that still wrote to stderr counts as a
// failure too and the stderr text becomes the result: warnings are surfaced
// as if they were errors.
func (e *Executor) compile(ctx context.Context, c process.Command) error {
	res, err := e.runner.RunCapturingBoth(ctx, c)
	if err != nil {
		return classify(executor.KindCompile, err)
	}
	if res.Stderr != "" {
		return executor.Failure(executor.KindCompile, res.Stderr, nil)
	}
	return nil
}

func (e *Executor) runArtifact(ctx context.Context, c process.Command) (string, error) {
	out, err := e.runner.Run(ctx, c)
	if err != nil {
		return "", classify(executor.KindRuntime, err)
	}
	return out, nil
}

func (e *Executor) runJava(ctx context.Context, req executor.ExecutionRequest) (string, error) {
	className := javaClassName(req.Code, req.EntryPoint)
	if !javaIdentifier.MatchString(className) {
		return "", executor.Failure(executor.KindCompile,
			fmt.Sprintf("invalid entry point %q", className), nil)
	}
	enc := e.encodings[executor.Java]

	return e.inWorkspace(func(ws *workspace.Workspace) (string, error) {
		// Named after the class so `public class X` compiles.
		file, err := writeSource(ws, className+".java", wrapJava(req.Code, className))
		if err != nil {
			return "", err
		}

		if err := e.compile(ctx, process.Command{
			Name:     javacBin,
			Args:     []string{file},
			Encoding: enc,
		}); err != nil {
			return "", err
		}

		return e.runArtifact(ctx, process.Command{
			Name:     javaBin,
			Args:     []string{"-cp", ws.Dir(), className},
			Encoding: enc,
		})
	})
}

func (e *Executor) runCpp(ctx context.Context, req executor.ExecutionRequest) (string, error) {
	enc := e.encodings[executor.Cpp]

	return e.inWorkspace(func(ws *workspace.Workspace) (string, error) {
		file, err := writeSource(ws, ws.NewFileName(".cpp"), wrapCpp(req.Code))
		if err != nil {
			return "", err
		}

		artifact := ws.Path("a.exe")
		if err := e.compile(ctx, process.Command{
			Name:     gppBin,
			Args:     []string{file, "-o", artifact},
			Encoding: enc,
		}); err != nil {
			return "", err
		}

		return e.runArtifact(ctx, process.Command{
			Name:     artifact,
			Encoding: enc,
		})
	})
}

func (e *Executor) runCSharp(ctx context.Context, req executor.ExecutionRequest) (string, error) {
	enc := e.encodings[executor.CSharp]
	stdin := strings.Join(req.Input, "\n")

	return e.inWorkspace(func(ws *workspace.Workspace) (string, error) {
		name := ws.NewFileName(".cs")
		file, err := writeSource(ws, name, wrapCSharp(req.Code))
		if err != nil {
			return "", err
		}

		// -out: keeps the artifact inside the workspace instead of the
		// server's working directory.
		artifact := ws.Path(strings.TrimSuffix(name, filepath.Ext(name)) + ".exe")
		if err := e.compile(ctx, process.Command{
			Name:     cscBin,
			Args:     []string{"-out:" + artifact, file},
			Encoding: enc,
		}); err != nil {
			var tagged *executor.Error
			if errors.As(err, &tagged) {
				tagged.Message = cleanCSharpDiagnostics(tagged.Message)
			}
			return "", err
		}

		run := process.Command{Name: artifact, Encoding: enc, Stdin: &stdin}
		if e.config.CSharpHost != "" {
			run.Name = e.config.CSharpHost
			run.Args = []string{artifact}
		}
		return e.runArtifact(ctx, run)
	})
}
