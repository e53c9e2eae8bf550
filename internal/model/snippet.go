// Package model defines the records the API stores and returns.
// These are plain structs with no behavior: the repository layer fills them
// from SQLite rows, the service layer validates them and the handlers encode
// them as JSON. Keeping them free of methods means every layer can import
// this package without pulling in anything else.
package model

import "time"

// Snippet is a piece of source code saved for later runs.
//
// Language holds the canonical lower-case name (see executor.ParseLanguage)
// so stored snippets never carry "Python" and "python" side by side.
// ClientID is the API client that created the snippet; it is empty when the
// server runs without authentication, and then anyone may edit it.
//
// The struct tags control the JSON field names. A snippet created by the
// client "grader" encodes as:
//
//	{"id":"cq2f...","name":"hello","language":"python","code":"print(1)",
//	 "description":"","clientId":"grader","createdAt":"...","updatedAt":"..."}
//
// omitempty drops clientId for unowned snippets instead of sending "".
type Snippet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Language    string    `json:"language"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	ClientID    string    `json:"clientId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
