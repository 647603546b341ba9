package controllers

import (
	"net/http"

	"github.com/lucasmoura/vitalstock-backend/api/middleware"
	"github.com/lucasmoura/vitalstock-backend/api/responses"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	pkgerrors "github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

// requirePrincipal pulls the authenticated caller off the context. Routes
// behind the Auth middleware always have one; its absence is a wiring bug.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (authz.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return authz.Principal{}, false
	}
	return principal, true
}
