// Package local compiles and runs snippets with the toolchains installed on
// the host.
//
// The Executor dispatches each request to a per-language strategy.
// JavaScript and Python are handed straight to their interpreter. Java, C++
// and C# go through a scoped workspace:
//
//	create workspace → write source → compile → run artifact → remove workspace
//
// A compile error short-circuits to the diagnostics and the workspace is
// removed on every path. There is no isolation: code runs with the
// privileges of the server process.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/text/encoding"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/process"
)

// Toolchain executables, looked up on PATH.
const (
	nodeBin   = "node"
	pythonBin = "python"
	javacBin  = "javac"
	javaBin   = "java"
	gppBin    = "g++"
	cscBin    = "csc"
)

// commandRunner is the part of process.Runner the strategies need.
type commandRunner interface {
	Run(ctx context.Context, c process.Command) (string, error)
	RunCapturingBoth(ctx context.Context, c process.Command) (process.CompileResult, error)
}

type strategy func(ctx context.Context, req executor.ExecutionRequest) (string, error)

// Compile-time check that *Executor satisfies executor.Executor.
var _ executor.Executor = (*Executor)(nil)

// Executor implements executor.Executor with host processes.
type Executor struct {
	runner     commandRunner
	config     Config
	logger     *slog.Logger
	encodings  map[executor.Language]encoding.Encoding
	strategies map[executor.Language]strategy
	lookPath   func(string) (string, error)
}

// New creates an Executor. It fails only when an encoding in cfg is unknown.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	return newExecutor(cfg, logger, process.NewRunner(logger))
}

func newExecutor(cfg Config, logger *slog.Logger, runner commandRunner) (*Executor, error) {
	e := &Executor{
		runner:    runner,
		config:    cfg,
		logger:    logger,
		encodings: make(map[executor.Language]encoding.Encoding, len(executor.Languages)),
		lookPath:  exec.LookPath,
	}

	for _, lang := range executor.Languages {
		enc, err := process.LookupEncoding(cfg.Encodings[lang])
		if err != nil {
			return nil, fmt.Errorf("local: encoding for %s: %w", lang, err)
		}
		e.encodings[lang] = enc
	}

	e.strategies = map[executor.Language]strategy{
		executor.JavaScript: e.runJavaScript,
		executor.Python:     e.runPython,
		executor.Java:       e.runJava,
		executor.Cpp:        e.runCpp,
		executor.CSharp:     e.runCSharp,
	}
	return e, nil
}

// toolchain lists the executables a language needs on PATH.
func (e *Executor) toolchain(lang executor.Language) []string {
	switch lang {
	case executor.JavaScript:
		return []string{nodeBin}
	case executor.Python:
		return []string{pythonBin}
	case executor.Java:
		return []string{javacBin, javaBin}
	case executor.Cpp:
		return []string{gppBin}
	case executor.CSharp:
		if e.config.CSharpHost != "" {
			return []string{cscBin, e.config.CSharpHost}
		}
		return []string{cscBin}
	}
	return nil
}

// MissingToolchains reports, per language, the executables that cannot be
// found on PATH. Requests for those languages end in a spawn error.
func (e *Executor) MissingToolchains() map[executor.Language][]string {
	missing := make(map[executor.Language][]string)
	for _, lang := range executor.Languages {
		for _, bin := range e.toolchain(lang) {
			if _, err := e.lookPath(bin); err != nil {
				missing[lang] = append(missing[lang], bin)
			}
		}
	}
	return missing
}

// Languages lists the languages this executor accepts.
func (e *Executor) Languages() []executor.Language {
	return executor.Languages
}

// Execute compiles (where needed) and runs req.Code.
//
// An unknown language is the only case reported through the error return;
// it wraps executor.ErrUnsupportedLanguage and nothing is spawned. Every
// other failure comes back as a result whose Kind is set and whose Output
// holds the message text.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	lang, err := executor.ParseLanguage(req.Language)
	if err != nil {
		e.logger.Warn("rejected execution", slog.String("language", req.Language))
		return nil, err
	}

	start := time.Now()
	output, err := e.strategies[lang](ctx, req)

	res := &executor.ExecutionResult{
		Language: lang,
		Output:   output,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Kind = executor.KindOf(err)
		res.Output = failureText(err)
	}

	e.logger.Info("execution finished",
		slog.String("language", string(lang)),
		slog.String("kind", string(res.Kind)),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}
