package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/handcar/handcar-backend/api/controllers"
	"github.com/handcar/handcar-backend/api/middleware"
	"github.com/handcar/handcar-backend/internal/addresses"
	"github.com/handcar/handcar-backend/internal/cart"
	"github.com/handcar/handcar-backend/internal/interactions"
	"github.com/handcar/handcar-backend/internal/orders"
	"github.com/handcar/handcar-backend/internal/products"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/internal/subscriptions"
	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/internal/wishlist"
	"github.com/handcar/handcar-backend/pkg/config"
	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/metrics"
)

// Services groups every domain service the HTTP surface dispatches to.
type Services struct {
	Vendors       vendors.Service
	Products      products.Service
	Ratings       ratings.Service
	Cart          cart.Service
	Wishlist      wishlist.Service
	Addresses     addresses.Service
	Orders        orders.Service
	Subscriptions subscriptions.Service
	Interactions  interactions.Service
}

// Infra is the shared plumbing the router reads from.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(infra.Idempotency, cfg.Idempotent.TTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		// public catalog
		r.Get("/vendors/nearby", controllers.VendorsNearby(svc.Vendors, logg))
		r.Get("/vendors/{vendorID}", controllers.VendorDetail(svc.Vendors, logg))
		r.Get("/vendors/{vendorID}/rating", controllers.VendorRating(svc.Vendors, svc.Ratings, logg))
		r.Get("/products", controllers.ProductList(svc.Products, logg))
		r.Get("/products/{productID}", controllers.ProductDetail(svc.Products, logg))
		r.Get("/products/{productID}/rating", controllers.ProductRating(svc.Products, svc.Ratings, logg))
		r.Get("/service-categories", controllers.ServiceCategoryList(svc.Vendors, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(enums.RoleCustomer, logg),
				idempotent,
			)

			r.Get("/cart", controllers.CartGet(svc.Cart, logg))
			r.Post("/cart", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/cart/items/{itemID}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/cart/items/{itemID}", controllers.CartRemoveItem(svc.Cart, logg))

			r.Get("/wishlist", controllers.WishlistList(svc.Wishlist, logg))
			r.Post("/wishlist", controllers.WishlistAdd(svc.Wishlist, logg))
			r.Delete("/wishlist/{itemID}", controllers.WishlistRemove(svc.Wishlist, logg))

			r.Get("/addresses", controllers.AddressList(svc.Addresses, logg))
			r.Post("/addresses", controllers.AddressAdd(svc.Addresses, logg))
			r.Put("/addresses/{addressID}/default", controllers.AddressSetDefault(svc.Addresses, logg))
			r.Delete("/addresses/{addressID}", controllers.AddressDelete(svc.Addresses, logg))

			r.Post("/orders", controllers.OrderPlace(svc.Orders, logg))
			r.Get("/orders", controllers.OrderList(svc.Orders, logg))
			r.Get("/orders/{orderID}", controllers.OrderDetail(svc.Orders, logg))

			r.Post("/subscriptions", controllers.SubscriptionCreate(svc.Subscriptions, logg))
			r.Get("/subscriptions/me", controllers.SubscriptionMe(svc.Subscriptions, logg))
			r.Post("/subscriptions/nearby-vendors", controllers.SubscriptionNearbyVendors(svc.Subscriptions, logg))

			r.Post("/ratings", controllers.RatingCreate(svc.Ratings, logg))
			r.Post("/interactions", controllers.InteractionLog(svc.Interactions, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(enums.RoleVendor, logg),
			)
			r.Get("/interactions", controllers.VendorPendingInteractions(svc.Interactions, logg))
			r.Patch("/interactions/{logID}", controllers.VendorInteractionDecision(svc.Interactions, logg))
			r.Get("/subscribers", controllers.VendorSubscribers(svc.Subscriptions, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(enums.RoleAdmin, logg),
				idempotent,
			)
			r.Get("/orders", controllers.AdminOrderList(svc.Orders, logg))
			r.Patch("/orders/{orderID}/status", controllers.AdminOrderStatus(svc.Orders, logg))

			r.Post("/products", controllers.AdminCreateProduct(svc.Products, logg))
			r.Post("/vendors", controllers.AdminCreateVendor(svc.Vendors, logg))
			r.Patch("/vendors/{vendorID}", controllers.AdminUpdateVendor(svc.Vendors, logg))
			r.Post("/service-categories", controllers.AdminCreateServiceCategory(svc.Vendors, logg))

			r.Get("/subscriptions/{subscriptionID}", controllers.AdminSubscriptionGet(svc.Subscriptions, logg))
			r.Put("/subscriptions/{subscriptionID}", controllers.AdminSubscriptionUpdate(svc.Subscriptions, logg))
			r.Delete("/subscriptions/{subscriptionID}", controllers.AdminSubscriptionDelete(svc.Subscriptions, logg))
		})
	})

	return r
}
