package server

import (
	"net/http"

	"github.com/jrsteele09/atelier-portal/guard"
	"github.com/jrsteele09/atelier-portal/roles"
)

func (s *Server) initRoutes() {
	public := s.guard.Require(guard.Public)

	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(public)...))

	// LOGIN / REGISTER
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare(public)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageUIHandler(), s.HTMLMiddleWare(public)...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Dashboards (role gated)
	customerOnly := s.guard.Require(guard.RequireRole(roles.RoleCustomer))
	staffOnly := s.guard.Require(guard.RequireRole(roles.RoleStaff))
	s.RegisterRouteHandler("GET "+RouteCustomerDashboard, ChainMiddleware(s.DashboardHandler(roles.RoleCustomer), s.HTMLMiddleWare(customerOnly)...))
	s.RegisterRouteHandler("GET "+RouteCustomerDashboardPage, ChainMiddleware(s.DashboardHandler(roles.RoleCustomer), s.HTMLMiddleWare(customerOnly)...))
	s.RegisterRouteHandler("GET "+RouteStaffDashboard, ChainMiddleware(s.DashboardHandler(roles.RoleStaff), s.HTMLMiddleWare(staffOnly)...))
	s.RegisterRouteHandler("GET "+RouteStaffDashboardPage, ChainMiddleware(s.DashboardHandler(roles.RoleStaff), s.HTMLMiddleWare(staffOnly)...))
	s.RegisterRouteHandler("POST "+RouteCustomerProfile, ChainMiddleware(s.ProfileSubmissionHandler(roles.RoleCustomer), s.HTMLMiddleWare(customerOnly)...))
	s.RegisterRouteHandler("POST "+RouteStaffProfile, ChainMiddleware(s.ProfileSubmissionHandler(roles.RoleStaff), s.HTMLMiddleWare(staffOnly)...))
	s.RegisterRouteHandler("POST "+RouteAccountDelete, ChainMiddleware(s.DeleteAccountHandler(), s.HTMLMiddleWare(s.guard.Require(guard.Authenticated))...))

	// API routes
	authenticatedAPI := s.guard.RequireJSON(guard.Authenticated)
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PATCH "+RouteAPISessionProfile, ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware(authenticatedAPI)...))
	s.RegisterRouteHandler("DELETE "+RouteAPISessionAccount, ChainMiddleware(s.DeleteAccountAPIHandler(), s.APIMiddleware(authenticatedAPI)...))
	s.RegisterRouteHandler(RouteAPIResource, ChainMiddleware(s.ResourceProxyHandler(), s.APIMiddleware(authenticatedAPI)...))
	s.RegisterRouteHandler(RouteAPIResourceSubpath, ChainMiddleware(s.ResourceProxyHandler(), s.APIMiddleware(authenticatedAPI)...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))

	// Anything else goes to the login page
	s.RegisterRouteHandler(RouteFallback, ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, RouteLogin)
	}, s.HTMLMiddleWare()...))
}
