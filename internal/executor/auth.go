package executor

import (
	"net/http"

	"github.com/icholy/digest"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

// clientFor returns the HTTP client for the resolved auth strategy. Digest
// auth needs a wrapping transport that performs the RFC 7616 challenge
// handshake; basic and none use the shared client directly.
func (e *Executor) clientFor(auth settings.Auth) *http.Client {
	if auth.Type != settings.AuthDigest {
		return e.client
	}
	return &http.Client{
		Transport: &digest.Transport{
			Username:  auth.Username,
			Password:  auth.Password,
			Transport: e.client.Transport,
		},
		Timeout: e.client.Timeout,
	}
}

// applyAuth decorates a single request. Basic auth is only attached when
// both credentials are present; a partial pair sends the request
// unauthenticated.
func applyAuth(req *http.Request, auth settings.Auth) {
	if auth.Type == settings.AuthBasic && auth.Username != "" && auth.Password != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}
}
