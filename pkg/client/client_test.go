package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-compiler/pkg/client"
)

// =============================================================================
// Fake API
// =============================================================================

type fakeAPI struct {
	requireToken bool
	tokenCalls   atomic.Int32
	lastRequest  client.Request
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		id, secret, ok := r.BasicAuth()
		if !ok {
			assert.NoError(t, r.ParseForm())
			id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
		}
		if id != "grader" || secret != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.requireToken && r.Header.Get("Authorization") != "Bearer tok" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"missing bearer token"}`))
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /api/execute", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastRequest))
		w.Header().Set("Content-Type", "application/json")
		if f.lastRequest.Language == "cobol" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"validation_error","message":"unsupported language: cobol","field":"language"}`))
			return
		}
		_, _ = w.Write([]byte(`{"output":"hi\n","language":"python","durationMs":12,"ok":true}`))
	}))

	mux.HandleFunc("POST /compiler/execute", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastRequest))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if f.lastRequest.Language == "cobol" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("unsupported language: cobol"))
			return
		}
		_, _ = w.Write([]byte("hi\n"))
	}))

	mux.HandleFunc("GET /api/languages", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"languages":["java","cpp","csharp","javascript","python"]}`))
	}))

	return mux
}

func newFake(t *testing.T, requireToken bool) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{requireToken: requireToken}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, srv
}

// =============================================================================
// Tests
// =============================================================================

func TestExecute(t *testing.T) {
	f, srv := newFake(t, false)
	c := client.New(srv.URL + "/")

	res, err := c.Execute(context.Background(), client.Request{
		Language: "python",
		Code:     "print('hi')",
		Input:    []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "hi\n", res.Output)
	assert.Equal(t, int64(12), res.DurationMs)
	assert.Equal(t, []string{"a", "b"}, f.lastRequest.Input)
}

func TestExecute_APIError(t *testing.T) {
	_, srv := newFake(t, false)
	c := client.New(srv.URL)

	_, err := c.Execute(context.Background(), client.Request{Language: "cobol", Code: "x"})
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "unsupported language: cobol", apiErr.Message)
}

func TestCompile(t *testing.T) {
	_, srv := newFake(t, false)
	c := client.New(srv.URL)

	out, err := c.Compile(context.Background(), client.Request{Language: "python", Code: "print('hi')"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)

	_, err = c.Compile(context.Background(), client.Request{Language: "cobol", Code: "x"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Code)
	assert.Equal(t, "unsupported language: cobol", apiErr.Message)
}

func TestLanguages(t *testing.T) {
	_, srv := newFake(t, false)
	c := client.New(srv.URL)

	langs, err := c.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"java", "cpp", "csharp", "javascript", "python"}, langs)
}

func TestClientCredentials(t *testing.T) {
	t.Run("fetches and reuses a token", func(t *testing.T) {
		f, srv := newFake(t, true)
		c := client.New(srv.URL, client.WithClientCredentials("grader", "s3cret"))

		_, err := c.Languages(context.Background())
		require.NoError(t, err)
		_, err = c.Execute(context.Background(), client.Request{Language: "python", Code: "1"})
		require.NoError(t, err)

		assert.Equal(t, int32(1), f.tokenCalls.Load())
	})

	t.Run("without credentials the API rejects the call", func(t *testing.T) {
		_, srv := newFake(t, true)
		c := client.New(srv.URL)

		_, err := c.Languages(context.Background())
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "unauthorized", apiErr.Code)
	})

	t.Run("bad secret fails at the token endpoint", func(t *testing.T) {
		_, srv := newFake(t, true)
		c := client.New(srv.URL, client.WithClientCredentials("grader", "wrong"))

		_, err := c.Languages(context.Background())
		assert.Error(t, err)
	})
}
