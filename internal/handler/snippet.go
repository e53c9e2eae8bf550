package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/auth"
	"github.com/sakif/code-compiler/internal/service"
)

// SnippetHandler exposes saved snippets over HTTP. Validation and ownership
// live in the service; this layer only translates HTTP to calls and back.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

type snippetRequest struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Name:        req.Name,
		Language:    req.Language,
		Code:        req.Code,
		Description: req.Description,
	}
}

type runRequest struct {
	Input []string `json:"input"`
}

// HandleList returns a page of snippets.
//
// HTTP: GET /api/snippets?limit=20&offset=0&language=python
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(q.Get("offset"), "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.List(r.Context(), limit, offset, q.Get("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	clientID, _ := auth.ClientIDFromContext(r.Context())
	snippet, err := h.snippets.Create(r.Context(), req.input(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	clientID, _ := auth.ClientIDFromContext(r.Context())
	snippet, err := h.snippets.Update(r.Context(), chi.URLParam(r, "id"), req.input(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	clientID, _ := auth.ClientIDFromContext(r.Context())
	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "id"), clientID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRun executes a saved snippet. The body is optional.
//
// HTTP: POST /api/snippets/{id}/run
// BODY: {"input": ["first line", "second line"]}
func (h *SnippetHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	res, err := h.snippets.Run(r.Context(), chi.URLParam(r, "id"), req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newExecuteResponse(res))
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be an integer")
	}
	return n, nil
}
