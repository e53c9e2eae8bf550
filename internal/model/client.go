package model

import "time"

// Client is a registered API consumer that exchanges its ID and secret for
// bearer tokens at /oauth/token.
//
// SecretHash is a bcrypt hash; the plain secret is never stored. The `json:"-"`
// tag keeps the hash out of every API response even if a Client is encoded
// by mistake.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
