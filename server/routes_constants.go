package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/{$}"

	// Auth Routes - Login, Registration & Logout
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"

	// Dashboard Routes
	RouteCustomerDashboard     = "/clientes"
	RouteCustomerDashboardPage = "/clientes/{page...}"
	RouteStaffDashboard        = "/vendedores"
	RouteStaffDashboardPage    = "/vendedores/{page...}"
	RouteCustomerProfile       = "/clientes/" + profilePageSlug
	RouteStaffProfile          = "/vendedores/" + profilePageSlug
	RouteAccountDelete         = "/conta/excluir"

	// API Routes
	RouteAPISession         = "/api/session"
	RouteAPISessionProfile  = "/api/session/profile"
	RouteAPISessionAccount  = "/api/session/account"
	RouteAPIResource        = "/api/resources/{resource}"
	RouteAPIResourceSubpath = "/api/resources/{resource}/{rest...}"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"

	RouteFallback = "/"
)
