package local

import "strings"

const defaultJavaClass = "Main"

// wrapJava puts a bare statement list into a runnable class named className.
// Code that already declares a class or mentions main is left alone.
func wrapJava(code, className string) string {
	toks := tokenize(code)
	if _, ok := declaredClass(toks); ok || hasIdent(toks, "main") {
		return code
	}
	var b strings.Builder
	b.WriteString("class " + className + " {\n")
	b.WriteString("    public static void main(String[] args) {\n")
	b.WriteString(code)
	b.WriteString("\n    }\n}\n")
	return b.String()
}

// javaClassName decides which class `java` is asked to run: the explicit
// entry point when given, else the first class declared in the snippet as
// written by the user, else Main. Only the first declaration is considered;
// snippets with several top-level types must name their entry point.
func javaClassName(code, entryPoint string) string {
	if entryPoint != "" {
		return entryPoint
	}
	if name, ok := declaredClass(tokenize(code)); ok {
		return name
	}
	return defaultJavaClass
}

// wrapCpp adds includes and an int main around snippets that lack one.
func wrapCpp(code string) string {
	if hasSequence(tokenize(code), "int", "main") {
		return code
	}
	var b strings.Builder
	b.WriteString("#include <iostream>\n")
	b.WriteString("using namespace std;\n")
	b.WriteString("int main() {\n")
	b.WriteString(code)
	b.WriteString(";\n    return 0;\n}\n")
	return b.String()
}

// wrapCSharp wraps snippets that have no namespace, class or Main at all
// into MyCode.Program.Main.
func wrapCSharp(code string) string {
	toks := tokenize(code)
	if hasIdent(toks, "namespace") || hasIdent(toks, "class") || hasIdent(toks, "Main") {
		return code
	}
	var b strings.Builder
	b.WriteString("using System;\n")
	b.WriteString("using System.Collections.Generic;\n")
	b.WriteString("using System.Linq;\n\n")
	b.WriteString("namespace MyCode\n{\n")
	b.WriteString("    class Program\n    {\n")
	b.WriteString("        static void Main(string[] args)\n        {\n")
	b.WriteString(code)
	b.WriteString("\n        }\n    }\n}\n")
	return b.String()
}

// cleanCSharpDiagnostics drops the compiler banner printed ahead of the
// first diagnostic.
func cleanCSharpDiagnostics(text string) string {
	if i := strings.Index(text, "error"); i > 0 {
		return text[i:]
	}
	return text
}
