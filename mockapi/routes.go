package mockapi

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-learn-admin/auth"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+auth.RouteLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+auth.RouteTokenRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("POST "+auth.RoutePasswordReset, s.PasswordResetHandler())
	s.RegisterRouteFunc("POST "+auth.RoutePasswordResetConfirm, s.PasswordResetConfirmHandler())

	// CONTENT (bearer token required)
	for _, collection := range s.content.Collections() {
		list := collection + "{$}"
		item := collection + "{id}/{$}"
		s.RegisterRouteFunc("GET "+list, ChainMiddleware(s.ListHandler(collection), s.RequireAuth))
		s.RegisterRouteFunc("POST "+list, ChainMiddleware(s.CreateHandler(collection), s.RequireAuth))
		s.RegisterRouteFunc("GET "+item, ChainMiddleware(s.GetHandler(collection), s.RequireAuth))
		s.RegisterRouteFunc("PUT "+item, ChainMiddleware(s.ReplaceHandler(collection), s.RequireAuth))
		s.RegisterRouteFunc("PATCH "+item, ChainMiddleware(s.PatchHandler(collection), s.RequireAuth))
		s.RegisterRouteFunc("DELETE "+item, ChainMiddleware(s.DeleteHandler(collection), s.RequireAuth))
	}

	s.mux.HandleFunc(s.prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})
}

// CollectionPattern returns the Calls pattern for a collection route, e.g.
// CollectionPattern("GET", "/questions/tests/", false) is
// "GET /questions/tests/{$}".
func CollectionPattern(method, collection string, item bool) string {
	collection = "/" + strings.Trim(collection, "/") + "/"
	if item {
		return method + " " + collection + "{id}/{$}"
	}
	return method + " " + collection + "{$}"
}
