// Package executor defines the request/result types shared by every code executor
// and the error taxonomy used to tag failed executions.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Language identifies one of the supported source languages.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
	CSharp     Language = "csharp"
	Java       Language = "java"
	Cpp        Language = "cpp"
)

// Languages lists every supported language in a stable order.
var Languages = []Language{JavaScript, Python, CSharp, Java, Cpp}

// ErrUnsupportedLanguage is returned (wrapped) when a request names a language
// outside of Languages. No process or workspace is created in that case.
var ErrUnsupportedLanguage = errors.New("Unsupported language")

// ParseLanguage matches s case-insensitively against the supported languages.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, s)
}

// ExecutionRequest represents a request to compile and run a snippet.
type ExecutionRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	// Input is written to the program's stdin, one element per line.
	// Only C# executions consume it.
	Input []string `json:"input,omitempty"`
	// EntryPoint optionally names the Java class to run. When empty the class
	// is detected from the source, defaulting to "Main".
	EntryPoint string `json:"entryPoint,omitempty"`
}

// ErrorKind tags a failed execution. The zero value means success.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindUnsupportedLanguage ErrorKind = "unsupported_language"
	KindCompile             ErrorKind = "compile_error"
	KindRuntime             ErrorKind = "runtime_error"
	KindSpawn               ErrorKind = "spawn_error"
	KindWorkspace           ErrorKind = "workspace_error"
	KindUnknown             ErrorKind = "unknown_error"
)

// ExecutionResult is the outcome of one execution. Output holds either the
// program's stdout or the cleaned error text; Kind tells the two apart.
type ExecutionResult struct {
	Language Language      `json:"language"`
	Output   string        `json:"output"`
	Kind     ErrorKind     `json:"kind,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the execution succeeded.
func (r *ExecutionResult) OK() bool {
	return r.Kind == KindNone
}

// String returns the plain result string: stdout on success, the error text otherwise.
func (r *ExecutionResult) String() string {
	return r.Output
}

// Error is a tagged execution failure. Strategies return it internally and the
// dispatcher turns it into an ExecutionResult.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Failure builds an *Error of the given kind around err.
func Failure(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnsupportedLanguage) {
		return KindUnsupportedLanguage
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Executor represents the core interface for compiling and running code.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}
