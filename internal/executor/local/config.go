package local

import (
	"runtime"

	"github.com/sakif/code-compiler/internal/executor"
)

// Config holds the configuration for host-process execution.
type Config struct {
	// WorkspaceRoot is where per-request build directories are created.
	// Empty means the current working directory.
	WorkspaceRoot string
	// Encodings maps a language to the character encoding its toolchain
	// writes to stdout/stderr. Languages not listed use UTF-8.
	Encodings map[executor.Language]string
	// CSharpHost launches compiled C# artifacts. Empty runs the artifact
	// directly, which only works on Windows.
	CSharpHost string
}

// DefaultConfig mirrors the encodings the toolchains use on a Windows host
// with a Cyrillic system locale: ANSI code page for Python and Java, the OEM
// console code page for programs built by csc.
func DefaultConfig() Config {
	cfg := Config{
		WorkspaceRoot: ".",
		Encodings: map[executor.Language]string{
			executor.JavaScript: "utf-8",
			executor.Python:     "windows-1251",
			executor.Java:       "windows-1251",
			executor.Cpp:        "utf-8",
			executor.CSharp:     "ibm866",
		},
	}
	if runtime.GOOS != "windows" {
		cfg.CSharpHost = "mono"
	}
	return cfg
}
