package types

import "encoding/json"

// Envelope is the uniform response wrapper every backend endpoint uses.
// Data is kept raw so each caller can decode its own payload shape.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// OK reports whether the envelope carries a success status.
func (e Envelope) OK() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// AuthPayload is the login/register success body carried next to the envelope
// fields. The backend returns the token at the top level rather than in Data.
type AuthPayload struct {
	StatusCode  int             `json:"statusCode"`
	Message     string          `json:"message"`
	AccessToken string          `json:"accessToken"`
	Data        json.RawMessage `json:"data,omitempty"`
}
