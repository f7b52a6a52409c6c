package domain

// Route is a client-side surface of the portal.
type Route string

const (
	RouteLanding  Route = "/"
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
	RouteAdmin    Route = "/admin"
	RouteUserHome Route = "/user-home"
)

// HomeRoute is where an authenticated session of the given role lands.
func HomeRoute(role Role) Route {
	if role == RoleAdmin {
		return RouteAdmin
	}
	return RouteUserHome
}

// Public reports whether the route is reachable without a session.
func (r Route) Public() bool {
	return r == RouteLanding || r == RouteLogin || r == RouteRegister
}
