package routes

import (
	"leviro/admin"
	"leviro/auth"
	"leviro/middleware"
	"leviro/ratelim"
	"leviro/storefront"

	"github.com/julienschmidt/httprouter"
)

func AddStorefrontRoutes(router *httprouter.Router, h *storefront.Handler, checkoutLimiter *ratelim.RateLimiter) {
	s := middleware.Session

	router.GET("/api/status", h.Status)
	router.GET("/api/products", h.Products)
	router.GET("/api/products/:id", h.Product)
	router.GET("/api/districts", h.Districts)

	router.GET("/api/cart", s(h.Cart))
	router.POST("/api/cart", s(h.AddToCart))
	router.DELETE("/api/cart", s(h.ClearCart))
	router.PUT("/api/cart/:itemId", s(h.UpdateCartItem))
	router.DELETE("/api/cart/:itemId", s(h.RemoveCartItem))
	router.POST("/api/checkout", checkoutLimiter.Limit(s(h.Checkout)))

	router.GET("/api/toasts", s(h.Toasts))
	router.DELETE("/api/toasts/:id", s(h.DismissToast))
	router.GET("/api/ws", s(h.Feed))
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, guard *middleware.Auth, loginLimiter *ratelim.RateLimiter) {
	router.POST("/api/admin/login", loginLimiter.Limit(h.Login))
	router.POST("/api/admin/logout", h.Logout)
	router.GET("/api/admin/session", guard.Authenticate(h.Session))
	router.PUT("/api/admin/credentials", guard.Authenticate(h.ChangeCredentials))
}

func AddAdminRoutes(router *httprouter.Router, h *admin.Handler, guard *middleware.Auth) {
	a := guard.Authenticate

	router.GET("/api/admin/toasts", a(h.Toasts))
	router.DELETE("/api/admin/toasts/:id", a(h.DismissToast))
	router.GET("/api/admin/ws", a(h.Feed))

	router.GET("/api/admin/orders", a(h.Orders))
	router.PUT("/api/admin/orders/:id/status", a(h.UpdateOrderStatus))
	router.GET("/api/admin/orders/:id/invoice", a(h.Invoice))

	router.POST("/api/admin/products", a(h.CreateProduct))
	router.PUT("/api/admin/products/:id", a(h.UpdateProduct))
	router.DELETE("/api/admin/products/:id", a(h.DeleteProduct))
}
