package mcp

import (
	"context"
	"net/http"
	"strings"

	"github.com/bobmcallan/genvr-mcp/internal/genvr"
)

// HeaderUserID carries the GenVR user id on HTTP transports.
const HeaderUserID = "X-GenVR-UID"

// credentialsKey is the context key for connection-level credentials.
type credentialsKey struct{}

// WithCredentials returns a new context carrying creds.
func WithCredentials(ctx context.Context, creds genvr.Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// GetCredentials extracts connection-level credentials, if present.
func GetCredentials(ctx context.Context) (genvr.Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(genvr.Credentials)
	return creds, ok
}

// CredentialsFromRequest attaches the bearer token and X-GenVR-UID header of
// an HTTP request to ctx. It matches the mcp-go HTTP and SSE context func
// signatures. Requests without either header leave ctx unchanged.
func CredentialsFromRequest(ctx context.Context, r *http.Request) context.Context {
	var creds genvr.Credentials
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		creds.APIKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	creds.UserID = strings.TrimSpace(r.Header.Get(HeaderUserID))
	if creds.Empty() {
		return ctx
	}
	return WithCredentials(ctx, creds)
}

// resolveCredentials fills each field from the call arguments first, then
// the connection, then the configured defaults.
func resolveCredentials(ctx context.Context, fromArgs, defaults genvr.Credentials) genvr.Credentials {
	creds := fromArgs
	if conn, ok := GetCredentials(ctx); ok {
		if creds.UserID == "" {
			creds.UserID = conn.UserID
		}
		if creds.APIKey == "" {
			creds.APIKey = conn.APIKey
		}
	}
	if creds.UserID == "" {
		creds.UserID = defaults.UserID
	}
	if creds.APIKey == "" {
		creds.APIKey = defaults.APIKey
	}
	return creds
}
