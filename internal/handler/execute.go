package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/executor"
)

type ExecuteHandler struct {
	exec   executor.Executor
	logger *slog.Logger
}

func NewExecuteHandler(exec executor.Executor, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		exec:   exec,
		logger: logger,
	}
}

// ExecuteResponse is the JSON view of an ExecutionResult.
type ExecuteResponse struct {
	Output     string             `json:"output"`
	Kind       executor.ErrorKind `json:"kind,omitempty"`
	Language   executor.Language  `json:"language"`
	DurationMs int64              `json:"durationMs"`
	OK         bool               `json:"ok"`
}

func newExecuteResponse(res *executor.ExecutionResult) ExecuteResponse {
	return ExecuteResponse{
		Output:     res.Output,
		Kind:       res.Kind,
		Language:   res.Language,
		DurationMs: res.Duration.Milliseconds(),
		OK:         res.OK(),
	}
}

// HandleCompile runs a snippet and answers with the resulting string.
//
// HTTP: POST /compiler/execute
// BODY: {"language": "python", "code": "print(1)", "input": ["line"]}
//
// Compile and runtime failures are ordinary 200 text bodies holding the
// error text. Only requests that never reach a toolchain get a 4xx.
func (h *ExecuteHandler) HandleCompile(w http.ResponseWriter, r *http.Request) {
	var req executor.ExecutionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.exec.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("execution failed", slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, "internal server error during execution")
		return
	}

	writeText(w, http.StatusOK, res.String())
}

// HandleExecute is the structured variant of HandleCompile.
//
// HTTP: POST /api/execute
// RESPONSE: {"output": "...", "kind": "compile_error", "language": "java", "durationMs": 812, "ok": false}
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.ExecutionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.exec.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			writeError(w, apperror.ValidationFailed("language", err.Error()))
			return
		}
		h.logger.Error("execution failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newExecuteResponse(res))
}

// HandleLanguages lists the accepted language names.
//
// HTTP: GET /api/languages
func (h *ExecuteHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]executor.Language{
		"languages": executor.Languages,
	})
}
