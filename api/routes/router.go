package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/law23sum/trader-exchange/api/controllers"
	admincontrollers "github.com/law23sum/trader-exchange/api/controllers/admin"
	authcontrollers "github.com/law23sum/trader-exchange/api/controllers/auth"
	ordercontrollers "github.com/law23sum/trader-exchange/api/controllers/orders"
	"github.com/law23sum/trader-exchange/api/middleware"
	"github.com/law23sum/trader-exchange/internal/auth"
	"github.com/law23sum/trader-exchange/internal/catalog"
	"github.com/law23sum/trader-exchange/internal/conversations"
	"github.com/law23sum/trader-exchange/internal/favorites"
	"github.com/law23sum/trader-exchange/internal/listings"
	"github.com/law23sum/trader-exchange/internal/orders"
	"github.com/law23sum/trader-exchange/internal/providers"
	"github.com/law23sum/trader-exchange/internal/reviews"
	"github.com/law23sum/trader-exchange/pkg/config"
	"github.com/law23sum/trader-exchange/pkg/db"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/redis"
)

// kvStore is the redis surface shared by idempotency, auth rate limiting and readiness.
type kvStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(context.Context) error
}

type accountLister interface {
	List(ctx context.Context, limit int) ([]models.Account, error)
}

type deadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

type requestObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// Params carries everything the HTTP surface needs. Nil services answer 500
// on their routes; a nil Redis disables idempotency and auth rate limiting.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Resolver    middleware.IdentityResolver
	HTTPMetrics requestObserver
	Gatherer    prometheus.Gatherer

	Auth          auth.Service
	Accounts      accountLister
	DeadLetters   deadLetterLister
	Providers     providers.Service
	Listings      listings.Service
	Catalog       catalog.Service
	Conversations conversations.Service
	Favorites     favorites.Service
	Orders        orders.Service
	Reviews       reviews.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	var store kvStore
	var redisPinger redis.Pinger
	if p.Redis != nil {
		store = p.Redis
		redisPinger = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(p.HTTPMetrics),
	)

	signinPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	requireAuth := middleware.Auth(p.Resolver, logg)
	optionalAuth := middleware.OptionalAuth(p.Resolver, logg)
	idempotent := middleware.Idempotency(store, logg)
	traderOnly := middleware.RequireRole(logg, enums.AccountRoleTrader)
	traderOrAdmin := middleware.RequireRole(logg, enums.AccountRoleTrader, enums.AccountRoleAdmin)
	adminOnly := middleware.RequireRole(logg, enums.AccountRoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, store, logg)).Post("/signup", authcontrollers.Signup(p.Auth, logg))
			r.With(middleware.AuthRateLimit(signinPolicy, store, logg)).Post("/signin", authcontrollers.Signin(p.Auth, logg))
			r.Post("/signout", authcontrollers.Signout(p.Auth, logg))
			r.With(requireAuth).Get("/me", authcontrollers.Me(logg))
			r.With(requireAuth).Post("/become-provider", authcontrollers.BecomeProvider(p.Auth, logg))
		})

		// Public reads. A bearer token, when present, identifies the viewer.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/players", controllers.ProvidersList(p.Providers, logg))
			r.Get("/providers/{providerId}", controllers.ProviderDetail(p.Providers, logg))
			r.Get("/providers/{providerId}/reviews", controllers.ProviderReviews(p.Reviews, logg))
			r.Get("/listings", controllers.ListingsList(p.Listings, logg))
			r.Get("/listings/{listingId}", controllers.ListingDetail(p.Listings, logg))
			r.Get("/categories", controllers.Categories(p.Catalog, logg))
			r.Get("/search", controllers.Search(p.Catalog, logg))
			r.With(idempotent).Post("/checkout", ordercontrollers.Checkout(p.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.With(idempotent).Post("/providers/{providerId}/reviews", controllers.ProviderSubmitReview(p.Reviews, logg))

			r.With(traderOrAdmin).Post("/listings", controllers.ListingCreate(p.Listings, logg))
			r.With(traderOrAdmin).Put("/listings/{listingId}", controllers.ListingUpdate(p.Listings, logg))
			r.With(traderOrAdmin).Delete("/listings/{listingId}", controllers.ListingDelete(p.Listings, logg))

			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/request", ordercontrollers.Request(p.Orders, logg))
				r.Get("/status", ordercontrollers.Status(p.Orders, logg))
				r.Get("/mine", ordercontrollers.Mine(p.Orders, logg))
				r.Post("/{orderId}/schedule-consultation", ordercontrollers.ScheduleConsultation(p.Orders, logg))
				r.With(idempotent).Post("/{orderId}/review", ordercontrollers.Review(p.Reviews, logg))
			})

			r.Route("/trader", func(r chi.Router) {
				r.With(traderOrAdmin).Get("/orders", ordercontrollers.TraderOrders(p.Orders, logg))
				r.With(traderOrAdmin, idempotent).Post("/orders/{orderId}/action", ordercontrollers.TraderAction(p.Orders, logg))
				r.With(traderOrAdmin, idempotent).Post("/orders/{orderId}/complete-with-details", ordercontrollers.CompleteWithDetails(p.Orders, logg))
				r.With(traderOnly).Get("/profile", controllers.TraderProfile(p.Providers, logg))
				r.With(traderOnly).Post("/profile", controllers.TraderSaveProfile(p.Providers, logg))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", controllers.ConversationCreate(p.Conversations, logg))
				r.Get("/", controllers.ConversationList(p.Conversations, logg))
				r.Get("/{conversationId}", controllers.ConversationDetail(p.Conversations, logg))
				r.Post("/{conversationId}/messages", controllers.ConversationPostMessage(p.Conversations, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoritesList(p.Favorites, logg))
				r.Post("/{providerId}", controllers.FavoriteAdd(p.Favorites, logg))
				r.Delete("/{providerId}", controllers.FavoriteRemove(p.Favorites, logg))
			})
			r.Get("/history", controllers.History(p.Favorites, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/accounts", admincontrollers.Accounts(p.Accounts, logg))
				r.Get("/outbox/dlq", admincontrollers.DeadLetters(p.DeadLetters, logg))
				r.Delete("/listings/{listingId}", admincontrollers.DeleteListing(p.Listings, logg))
			})
		})
	})

	return r
}
