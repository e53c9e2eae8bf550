package local

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/process"
)

// fakeRunner records every command instead of spawning it. Responses are
// keyed by command name; the artifact of a compiled language is matched by
// its base name.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []process.Command
	sources   map[string]string
	outputs   map[string]string
	compiles  map[string]process.CompileResult
	failures  map[string]error
	dirExists []bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		sources:  make(map[string]string),
		outputs:  make(map[string]string),
		compiles: make(map[string]process.CompileResult),
		failures: make(map[string]error),
	}
}

func lookupEncoding(t *testing.T, name string) encoding.Encoding {
	t.Helper()
	enc, err := process.LookupEncoding(name)
	require.NoError(t, err)
	return enc
}

func key(c process.Command) string {
	return filepath.Base(c.Name)
}

func (f *fakeRunner) Run(_ context.Context, c process.Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err, ok := f.failures[key(c)]; ok {
		return "", err
	}
	return f.outputs[key(c)], nil
}

func (f *fakeRunner) RunCapturingBoth(_ context.Context, c process.Command) (process.CompileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	// Capture the written source while the workspace still exists.
	for _, arg := range c.Args {
		if data, err := os.ReadFile(arg); err == nil {
			f.sources[key(c)] = string(data)
			_, statErr := os.Stat(filepath.Dir(arg))
			f.dirExists = append(f.dirExists, statErr == nil)
		}
	}
	if err, ok := f.failures[key(c)]; ok {
		return process.CompileResult{}, err
	}
	return f.compiles[key(c)], nil
}

func (f *fakeRunner) names() []string {
	var names []string
	for _, c := range f.calls {
		names = append(names, key(c))
	}
	return names
}

func newTestExecutor(t *testing.T) (*Executor, *fakeRunner, string) {
	t.Helper()
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = root
	cfg.CSharpHost = ""

	runner := newFakeRunner()
	e, err := newExecutor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), runner)
	require.NoError(t, err)
	return e, runner, root
}

func assertNoWorkspaceLeft(t *testing.T, root string) {
	t.Helper()
	list, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, list, "workspace directories left behind")
}

func TestExecute_UnsupportedLanguage(t *testing.T) {
	e, runner, root := newTestExecutor(t)

	for _, lang := range []string{"ruby", "", "c", "go"} {
		res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: lang, Code: "puts 1"})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, executor.ErrUnsupportedLanguage))
		assert.Contains(t, err.Error(), "Unsupported language")
	}

	assert.Empty(t, runner.calls, "no process may be spawned")
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_CaseInsensitiveLanguage(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	runner.outputs["python"] = "23\n"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "PyThOn", Code: `print("23")`})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, executor.Python, res.Language)
	assert.Equal(t, "23\n", res.String())
}

func TestExecute_Interpreted(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.outputs["node"] = "2\n"
	runner.outputs["python"] = "23\n"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "javascript", Code: "console.log(1+1)", Input: []string{"ignored"}})
	require.NoError(t, err)
	assert.Equal(t, "2\n", res.Output)

	res, err = e.Execute(context.Background(), executor.ExecutionRequest{Language: "python", Code: `print("23")`})
	require.NoError(t, err)
	assert.Equal(t, "23\n", res.Output)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"-e", "console.log(1+1)"}, runner.calls[0].Args)
	assert.Nil(t, runner.calls[0].Stdin, "only C# receives stdin")
	assert.Equal(t, []string{"-c", `print("23")`}, runner.calls[1].Args)

	// Encodings are per language.
	assert.Equal(t, lookupEncoding(t, "utf-8"), runner.calls[0].Encoding)
	assert.Equal(t, lookupEncoding(t, "windows-1251"), runner.calls[1].Encoding)

	assertNoWorkspaceLeft(t, root)
}

func TestExecute_RuntimeError(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	runner.failures["python"] = &process.ExitError{Command: "python", Code: 1, Stderr: "NameError: name 'x' is not defined\n"}

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "python", Code: "print(x)"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, executor.KindRuntime, res.Kind)
	assert.Equal(t, "NameError: name 'x' is not defined\n", res.Output)
}

func TestExecute_MissingToolchain(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	runner.failures["node"] = &process.SpawnError{Command: "node", Err: exec.ErrNotFound}

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "javascript", Code: "1"})
	require.NoError(t, err)
	assert.Equal(t, executor.KindSpawn, res.Kind)
	assert.Equal(t, exec.ErrNotFound.Error(), res.Output)
}

func TestExecute_Java(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.outputs["java"] = "hi\n"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "java", Code: `System.out.println("hi");`})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "hi\n", res.Output)

	assert.Equal(t, []string{"javac", "java"}, runner.names())
	assert.Equal(t, "Main.java", filepath.Base(runner.calls[0].Args[0]))
	assert.Contains(t, runner.sources["javac"], "class Main {")

	run := runner.calls[1]
	require.Len(t, run.Args, 3)
	assert.Equal(t, "-cp", run.Args[0])
	assert.Equal(t, filepath.Dir(runner.calls[0].Args[0]), run.Args[1])
	assert.Equal(t, "Main", run.Args[2])

	assert.Equal(t, []bool{true}, runner.dirExists)
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_JavaDeclaredClassIsNotWrapped(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	code := "public class Hello {\n  public static void main(String[] args) { System.out.println(1); }\n}\n"

	_, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "java", Code: code})
	require.NoError(t, err)

	assert.Equal(t, code, runner.sources["javac"])
	assert.Equal(t, "Hello.java", filepath.Base(runner.calls[0].Args[0]))
	assert.Equal(t, "Hello", runner.calls[1].Args[2])
}

func TestExecute_JavaUnicodeClassName(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.outputs["java"] = "hi\n"
	code := "public class Привет {\n  public static void main(String[] args) { System.out.println(\"hi\"); }\n}\n"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "java", Code: code})
	require.NoError(t, err)
	assert.True(t, res.OK(), res.Output)
	assert.Equal(t, "Привет.java", filepath.Base(runner.calls[0].Args[0]))
	assert.Equal(t, "Привет", runner.calls[1].Args[2])
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_JavaInvalidEntryPoint(t *testing.T) {
	e, runner, root := newTestExecutor(t)

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "java", Code: "x", EntryPoint: "../evil"})
	require.NoError(t, err)
	assert.Equal(t, executor.KindCompile, res.Kind)
	assert.Empty(t, runner.calls)
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_CompileFailure(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.failures["javac"] = &process.ExitError{
		Command: "javac",
		Code:    1,
		Stderr:  "Main.java:3: error: ';' expected\n",
	}

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "java", Code: `System.out.println("hi")`})
	require.NoError(t, err)
	assert.Equal(t, executor.KindCompile, res.Kind)
	assert.Equal(t, "Main.java:3: error: ';' expected\n", res.Output)
	assert.Equal(t, []string{"javac"}, runner.names(), "artifact must not run after a failed compile")
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_CompileWarningsShortCircuit(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.compiles["g++"] = process.CompileResult{Stderr: "warning: unused variable 'x'\n"}
	runner.outputs["a.exe"] = "never"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "cpp", Code: `int x; std::cout << "hi";`})
	require.NoError(t, err)
	assert.Equal(t, executor.KindCompile, res.Kind)
	assert.Equal(t, "warning: unused variable 'x'\n", res.Output)
	assert.Equal(t, []string{"g++"}, runner.names())
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_Cpp(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.outputs["a.exe"] = "hi"

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "cpp", Code: `std::cout << "hi";`})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Output)

	require.Equal(t, []string{"g++", "a.exe"}, runner.names())
	compile := runner.calls[0]
	assert.True(t, strings.HasSuffix(compile.Args[0], ".cpp"))
	assert.Equal(t, "-o", compile.Args[1])
	assert.Equal(t, filepath.Join(filepath.Dir(compile.Args[0]), "a.exe"), compile.Args[2])
	assert.Equal(t, compile.Args[2], runner.calls[1].Name)
	assert.Contains(t, runner.sources["g++"], "int main() {")

	assertNoWorkspaceLeft(t, root)
}

func TestExecute_CppWithMainIsNotWrapped(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	code := "#include <iostream>\nint main() { std::cout << 1; return 0; }\n"

	_, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "cpp", Code: code})
	require.NoError(t, err)
	assert.Equal(t, code, runner.sources["g++"])
}

func TestExecute_CSharp(t *testing.T) {
	e, runner, root := newTestExecutor(t)

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{
		Language: "csharp",
		Code:     `Console.WriteLine("hi " + Console.ReadLine());`,
		Input:    []string{"bob", "alice"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK())

	require.Len(t, runner.calls, 2)
	compile, run := runner.calls[0], runner.calls[1]

	assert.Equal(t, "csc", compile.Name)
	require.Len(t, compile.Args, 2)
	source := compile.Args[1]
	artifact := strings.TrimPrefix(compile.Args[0], "-out:")
	assert.Equal(t, filepath.Dir(source), filepath.Dir(artifact), "artifact must be written inside the workspace")
	assert.Equal(t, strings.TrimSuffix(filepath.Base(source), ".cs")+".exe", filepath.Base(artifact))

	assert.Equal(t, artifact, run.Name)
	require.NotNil(t, run.Stdin)
	assert.Equal(t, "bob\nalice", *run.Stdin)
	assert.Equal(t, lookupEncoding(t, "ibm866"), run.Encoding)

	assert.Contains(t, runner.sources["csc"], "namespace MyCode")
	assert.Contains(t, runner.sources["csc"], "static void Main(string[] args)")
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_CSharpHost(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	e.config.CSharpHost = "mono"

	_, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "csharp", Code: `Console.WriteLine("hi");`})
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "mono", runner.calls[1].Name)
	assert.Equal(t, []string{strings.TrimPrefix(runner.calls[0].Args[0], "-out:")}, runner.calls[1].Args)
}

func TestExecute_CSharpDiagnosticsAreCleaned(t *testing.T) {
	e, runner, root := newTestExecutor(t)
	runner.failures["csc"] = &process.ExitError{
		Command: "csc",
		Code:    1,
		Stdout:  "Microsoft (R) Visual C# Compiler\nCopyright (C) Microsoft Corporation.\n\nx.cs(5,1): error CS1002: ; expected\n",
	}

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "csharp", Code: `Console.WriteLine("hi")`})
	require.NoError(t, err)
	assert.Equal(t, executor.KindCompile, res.Kind)
	assert.Equal(t, "error CS1002: ; expected\n", res.Output)
	assertNoWorkspaceLeft(t, root)
}

func TestExecute_WorkspaceFailure(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	e.config.WorkspaceRoot = filepath.Join(t.TempDir(), "missing")

	res, err := e.Execute(context.Background(), executor.ExecutionRequest{Language: "cpp", Code: "1"})
	require.NoError(t, err)
	assert.Equal(t, executor.KindWorkspace, res.Kind)
	assert.NotEmpty(t, res.Output)
	assert.Empty(t, runner.calls)
}

func TestExecute_Idempotent(t *testing.T) {
	e, runner, _ := newTestExecutor(t)
	runner.outputs["python"] = "23\n"
	req := executor.ExecutionRequest{Language: "python", Code: `print("23")`}

	first, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Output, second.Output)
}

func TestNew_UnknownEncoding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Encodings[executor.Python] = "klingon-1"
	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestProcessMessagePriority(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"stdout first", &process.ExitError{Stdout: "out", Stderr: "err"}, "out"},
		{"then stderr", &process.ExitError{Stderr: "err"}, "err"},
		{"then message", errors.New("boom"), "boom"},
		{"then generic exit text", &process.ExitError{}, "Code execution failed"},
		{"unknown", nil, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processMessage(tt.err))
		})
	}
}

func TestMissingToolchains(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	e.config.CSharpHost = "mono"
	installed := map[string]bool{nodeBin: true, pythonBin: true, javacBin: true, cscBin: true}
	e.lookPath = func(bin string) (string, error) {
		if installed[bin] {
			return "/usr/bin/" + bin, nil
		}
		return "", exec.ErrNotFound
	}

	missing := e.MissingToolchains()

	assert.Equal(t, map[executor.Language][]string{
		executor.Java:   {javaBin},
		executor.Cpp:    {gppBin},
		executor.CSharp: {"mono"},
	}, missing)
}
