package server

// Route path constants
// The OIDC paths follow the Keycloak realm layout the client is configured for.
const (
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteOAuth2Token           = "/protocol/openid-connect/token"
	RouteOAuth2Logout          = "/protocol/openid-connect/logout"
	RouteUserInfo              = "/protocol/openid-connect/userinfo"
	RouteHealth                = "/healthz"
)
