package service

import (
	"strings"

	"github.com/intbank/portal/internal/core/domain"
)

// ResolveRoute returns the surface actually shown when path is requested,
// after following every redirect:
//   - signed out: public routes render, anything else lands on "/".
//   - signed in: "/", "/login" and "/register" send the user to the home of
//     their role; the other role's home and unknown paths fall back to "/",
//     which again resolves to the home route.
func ResolveRoute(s domain.Session, path string) domain.Route {
	route := normalizeRoute(path)
	if !s.Authenticated() {
		if route.Public() {
			return route
		}
		return domain.RouteLanding
	}
	if !s.Role.Valid() {
		return domain.RouteLanding
	}
	return domain.HomeRoute(s.Role)
}

// Allows reports whether the session may render route without a redirect.
func Allows(s domain.Session, route domain.Route) bool {
	return ResolveRoute(s, string(route)) == route
}

func normalizeRoute(path string) domain.Route {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.ToLower(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return domain.Route(p)
}
