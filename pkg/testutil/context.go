package testutil

import (
	"net/http"

	"listmgmt/pkg/requestcontext"
)

// WithPrincipal sets the identity and role the auth middleware would.
func WithPrincipal(req *http.Request, identity, role string) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), identity)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}
