package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/didip/tollbooth_gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/authentication"
	"github.com/mehmetcc/homefinders-service/internal/identity"
	"github.com/mehmetcc/homefinders-service/internal/listing"
	"github.com/mehmetcc/homefinders-service/internal/metrics"
	"github.com/mehmetcc/homefinders-service/internal/offer"
	"github.com/mehmetcc/homefinders-service/internal/payment"
	"github.com/mehmetcc/homefinders-service/internal/review"
	"github.com/mehmetcc/homefinders-service/internal/wishlist"
)

const banner = "bdHomeFinders server is running"

type Handlers struct {
	Auth     *authentication.AuthHandler
	Identity *identity.Handler
	Listing  *listing.Handler
	Offer    *offer.Handler
	Payment  *payment.Handler
	Review   *review.Handler
	Wishlist *wishlist.Handler
}

type Options struct {
	// CORSOrigins lists allowed origins; "*" or empty allows all.
	CORSOrigins []string
	// RateLimit is the per-client request rate of the token and payment intent
	// endpoints. Zero disables limiting.
	RateLimit float64
	// SwaggerAccounts protects /swagger with basic auth. Nil leaves it unmounted.
	SwaggerAccounts gin.Accounts
}

// New builds the engine with every route and its guard. Each guard is an
// ordered list of checks, so a role check always sees the claims the token
// check stored.
func New(h Handlers, authz *authentication.Authorizer, opts Options, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware(), corsMiddleware(opts.CORSOrigins))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if len(opts.SwaggerAccounts) > 0 {
		swaggerGroup := router.Group("/swagger", gin.BasicAuth(opts.SwaggerAccounts))
		swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		logger.Info("swagger UI disabled, no admin credentials configured")
	}

	limit := rateLimit(opts.RateLimit)

	token := authz.Token()
	admin := authz.Require(token, authz.Role(identity.Admin))
	agent := authz.Require(token, authz.Role(identity.Agent))
	self := authz.Require(token, authz.Self("email"))

	router.POST("/jwt", limit, h.Auth.IssueToken)

	// users
	router.GET("/users", admin, h.Identity.List)
	router.GET("/users/admin/:email", self, h.Identity.IsAdmin)
	router.GET("/users/agent/:email", self, h.Identity.IsAgent)
	router.POST("/users", h.Identity.Signup)
	router.PATCH("/users/admin/:id", admin, h.Identity.MakeAdmin)
	router.PATCH("/users/:id", admin, h.Identity.SetRole)
	router.DELETE("/users/:id", admin, h.Identity.Delete)

	// listings
	router.GET("/propertys", h.Listing.List)
	router.GET("/propertys/v1", h.Listing.Featured)
	router.GET("/propertys/verified", h.Listing.Verified)
	router.GET("/propertys/:id", h.Listing.Get)
	router.PATCH("/propertys/:id", authz.Require(token, authz.Identify()), h.Listing.Update)
	router.DELETE("/propertys/:id", admin, h.Listing.Delete)
	router.POST("/propertys", admin, h.Listing.Create)
	router.PATCH("/propertys/reupdate/:id", agent, h.Listing.AgentUpdate)
	router.GET("/propertys/agent/:email", h.Listing.ListByOwner)
	router.POST("/propertys/agent", agent, h.Listing.CreateForAgent)
	router.DELETE("/propertys/agent/:id", agent, h.Listing.DeleteOwned)
	router.PATCH("/status/:id", admin, h.Listing.SetStatus)

	// offers
	router.GET("/offer_requests", h.Offer.List)
	router.GET("/offer_requests/:id", h.Offer.Get)
	router.GET("/offer_requests/agent/:email", h.Offer.ByAgent)
	router.GET("/offer_requests/user/:email", h.Offer.ByBuyer)
	router.POST("/offer_requests", h.Offer.Create)
	router.PATCH("/offer_requests/:id", agent, h.Offer.SetStatus)
	router.DELETE("/offer_requests/:id", agent, h.Offer.Delete)

	// reviews
	router.GET("/reviews", h.Review.List)
	router.GET("/reviews/:email", h.Review.ListByEmail)
	router.POST("/reviews", h.Review.Create)
	router.DELETE("/reviews/:id", authz.Require(token, authz.Identify()), h.Review.Delete)

	// wishlist
	router.GET("/wishlist", h.Wishlist.ListByEmail)
	router.GET("/wishlist/:id", h.Wishlist.Get)
	router.POST("/wishlist", h.Wishlist.Create)
	router.DELETE("/wishlist/:id", h.Wishlist.Delete)

	// payments
	router.POST("/create-payment-intent", limit, h.Payment.CreateIntent)
	router.GET("/payments/:email", self, h.Payment.ListByEmail)
	router.POST("/payments", h.Payment.Complete)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", payment.IdempotencyKeyHeader)
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func rateLimit(rps float64) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr"})
	lmt.SetMessage(`{"message":"too many requests"}`)
	lmt.SetMessageContentType("application/json; charset=utf-8")
	return tollbooth_gin.LimitHandler(lmt)
}
