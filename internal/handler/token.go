package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/code-compiler/internal/service"
)

// TokenHandler implements the OAuth2 client-credentials token endpoint.
type TokenHandler struct {
	clients *service.ClientService
	logger  *slog.Logger
}

func NewTokenHandler(clients *service.ClientService, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{clients: clients, logger: logger}
}

// oauthError is the RFC 6749 §5.2 error body.
type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// HandleToken issues an access token.
//
// HTTP: POST /oauth/token
// BODY: grant_type=client_credentials (application/x-www-form-urlencoded)
//
// The client authenticates with HTTP Basic, or with client_id and
// client_secret form fields. golang.org/x/oauth2/clientcredentials tries
// both, so either style works with it.
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	if grant := r.PostForm.Get("grant_type"); grant != "client_credentials" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type",
			"only client_credentials is supported")
		return
	}

	id, secret, ok := basicCredentials(r)
	if !ok {
		id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	}

	grant, err := h.clients.IssueToken(r.Context(), id, secret)
	if err != nil {
		status, _ := statusFor(err)
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Basic realm="code-compiler"`)
			writeOAuthError(w, status, "invalid_client", err.Error())
			return
		}
		if status == http.StatusInternalServerError {
			h.logger.Error("token issue failed", slog.String("error", err.Error()))
			writeOAuthError(w, status, "server_error", "")
			return
		}
		writeOAuthError(w, status, "invalid_request", err.Error())
		return
	}

	// RFC 6749 §5.1: token responses must not be cached.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, grant)
}

// basicCredentials reads HTTP Basic client credentials. RFC 6749 §2.3.1
// form-encodes both parts before base64, so they are unescaped here.
func basicCredentials(r *http.Request) (string, string, bool) {
	id, secret, ok := r.BasicAuth()
	if !ok {
		return "", "", false
	}
	uid, err := url.QueryUnescape(id)
	if err != nil {
		return "", "", false
	}
	usecret, err := url.QueryUnescape(secret)
	if err != nil {
		return "", "", false
	}
	return uid, usecret, true
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, oauthError{Error: code, Description: description})
}
