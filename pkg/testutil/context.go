package testutil

import (
	"net/http"

	id "provenance/pkg/domain"
	"provenance/pkg/requestcontext"
)

// WithAccountID simulates what the auth middleware does for an authenticated request.
func WithAccountID(req *http.Request, accountID id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithAccountID(req.Context(), accountID))
}
