package routes

import (
	"leviro/admin"
	"leviro/auth"
	"leviro/hub"
	"leviro/middleware"
	"leviro/ratelim"
	"leviro/store"
	"leviro/storefront"

	"github.com/julienschmidt/httprouter"
)

// Limits applied per client address.
const (
	CheckoutPerMinute = 6
	LoginPerMinute    = 5
)

// RoutesWrapper registers every API route on router.
func RoutesWrapper(router *httprouter.Router, st *store.Store, h *hub.Hub, guard *middleware.Auth) {
	AddStorefrontRoutes(router, &storefront.Handler{Store: st, Hub: h}, ratelim.NewRateLimiter(CheckoutPerMinute, 3))
	AddAuthRoutes(router, &auth.Handler{Store: st, Auth: guard}, guard, ratelim.NewRateLimiter(LoginPerMinute, 5))
	AddAdminRoutes(router, &admin.Handler{Store: st, Hub: h}, guard)
}
