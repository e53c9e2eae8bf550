package local

import (
	"context"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/process"
)

func (e *Executor) runJavaScript(ctx context.Context, req executor.ExecutionRequest) (string, error) {
	return e.interpret(ctx, executor.JavaScript, nodeBin, "-e", req.Code)
}

func (e *Executor) runPython(ctx context.Context, req executor.ExecutionRequest) (string, error) {
	return e.interpret(ctx, executor.Python, pythonBin, "-c", req.Code)
}

// interpret passes the snippet as a single literal argument to the interpreter.
func (e *Executor) interpret(ctx context.Context, lang executor.Language, bin, flag, code string) (string, error) {
	out, err := e.runner.Run(ctx, process.Command{
		Name:     bin,
		Args:     []string{flag, code},
		Encoding: e.encodings[lang],
	})
	if err != nil {
		return "", classify(executor.KindRuntime, err)
	}
	return out, nil
}
