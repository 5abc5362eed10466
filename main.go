package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/mehmetcc/homefinders-service/docs"
	"github.com/mehmetcc/homefinders-service/internal/authentication"
	"github.com/mehmetcc/homefinders-service/internal/cache"
	"github.com/mehmetcc/homefinders-service/internal/identity"
	"github.com/mehmetcc/homefinders-service/internal/listing"
	"github.com/mehmetcc/homefinders-service/internal/notification"
	"github.com/mehmetcc/homefinders-service/internal/offer"
	"github.com/mehmetcc/homefinders-service/internal/payment"
	"github.com/mehmetcc/homefinders-service/internal/review"
	"github.com/mehmetcc/homefinders-service/internal/router"
	"github.com/mehmetcc/homefinders-service/internal/store"
	"github.com/mehmetcc/homefinders-service/internal/utils"
	"github.com/mehmetcc/homefinders-service/internal/wishlist"
)

const (
	collectionUsers     = "users"
	collectionListings  = "propertys"
	collectionOffers    = "offers"
	collectionPayments  = "payments"
	collectionWishlists = "wishlists"
	collectionReviews   = "reviews"
)

// stores holds one repository per collection plus the transactor that spans them.
type stores struct {
	users     store.Repository[identity.Identity]
	listings  store.Repository[listing.Property]
	offers    store.Repository[offer.Offer]
	payments  store.Repository[payment.Record]
	wishlists store.Repository[wishlist.Entry]
	reviews   store.Repository[review.Review]
	tx        store.Transactor
	close     func(ctx context.Context)
}

// @title           bdHomeFinders API
// @version         1.0
// @description     Listings, offers and payments for the bdHomeFinders marketplace.
//
// @host      localhost:5000
// @BasePath  /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	gin.SetMode(cfg.Server.Mode)

	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// init database
	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	// init cache
	var listingCache cache.Cache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
		defer client.Close()
		listingCache = cache.NewRedisCache(client, "homefinders:")
		logger.Info("listing cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	}

	//
	// WIRE UP SERVICES
	//
	tokens := utils.NewTokenService(cfg.Token.AccessTokenSecret)

	identityService := identity.NewService(st.users, logger)
	listingService := listing.NewService(st.listings, listingCache, cfg.Cache.TTL, logger)
	offerService := offer.NewService(st.offers, logger)
	wishlistService := wishlist.NewService(st.wishlists, logger)
	reviewService := review.NewService(st.reviews, logger)

	var notifier notification.Notifier = notification.Nop{}
	if cfg.Mail.APIKey != "" && cfg.Mail.Domain != "" {
		notifier = notification.NewMailgunNotifier(cfg.Mail.Domain, cfg.Mail.APIKey, cfg.Mail.Sender, logger)
	}
	if cfg.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set, payment intents will fail")
	}
	paymentService := payment.NewService(payment.Dependencies{
		Payments:  st.payments,
		Offers:    st.offers,
		Listings:  listingService,
		Tx:        st.tx,
		Processor: payment.NewStripeProcessor(cfg.Payment.StripeSecretKey),
		Notifier:  notifier,
		Logger:    logger,
	})

	reconciler, err := payment.StartReconciler(paymentService, cfg.Payment.ReconcileSchedule, logger)
	if err != nil {
		logger.Fatal("failed to start payment reconciler", zap.Error(err))
	}

	authz := authentication.NewAuthorizer(tokens, identityService, logger)

	var swaggerAccounts gin.Accounts
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		swaggerAccounts = gin.Accounts{cfg.Admin.Username: cfg.Admin.Password}
	}

	engine := router.New(router.Handlers{
		Auth:     authentication.NewAuthHandler(tokens, logger),
		Identity: identity.NewHandler(identityService, logger),
		Listing:  listing.NewHandler(listingService, logger),
		Offer:    offer.NewHandler(offerService, logger),
		Payment:  payment.NewHandler(paymentService, logger),
		Review:   review.NewHandler(reviewService, logger),
		Wishlist: wishlist.NewHandler(wishlistService, logger),
	}, authz, router.Options{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.RateLimit.RequestsPerSecond,
		SwaggerAccounts: swaggerAccounts,
	}, logger)

	//
	// START SERVER
	//
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-reconciler.Stop().Done()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
	st.close(ctx)
}

// openStores connects the configured backend. An unreachable server is
// logged and not retried; requests fail individually until it comes back.
func openStores(cfg *utils.Config, logger *zap.Logger) (*stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Database.Driver {
	case utils.DriverMongo:
		client, err := utils.InitMongo(cfg.Database.MongoURI())
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			logger.Error("mongo is unreachable", zap.Error(err))
		}
		db := client.Database(cfg.Database.Name)

		users := store.NewMongoRepository[identity.Identity](db, collectionUsers)
		if err := users.EnsureUnique(ctx, "email"); err != nil {
			logger.Error("failed to ensure unique email index", zap.Error(err))
		}
		payments := store.NewMongoRepository[payment.Record](db, collectionPayments)
		if err := payments.EnsureUnique(ctx, "propertyId"); err != nil {
			logger.Error("failed to ensure unique payment offer index", zap.Error(err))
		}
		var tx store.Transactor = store.NoopTransactor{}
		if cfg.Database.Transactions {
			supported, err := store.SupportsTransactions(ctx, client)
			switch {
			case err != nil:
				logger.Error("could not detect transaction support, running without transactions", zap.Error(err))
			case !supported:
				logger.Warn("mongo is a standalone server, running without transactions")
			default:
				tx = store.NewMongoTransactor(client)
			}
		}
		return &stores{
			users:     users,
			listings:  store.NewMongoRepository[listing.Property](db, collectionListings),
			offers:    store.NewMongoRepository[offer.Offer](db, collectionOffers),
			payments:  payments,
			wishlists: store.NewMongoRepository[wishlist.Entry](db, collectionWishlists),
			reviews:   store.NewMongoRepository[review.Review](db, collectionReviews),
			tx:        tx,
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					logger.Error("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil

	case utils.DriverPostgres:
		db, err := utils.InitDatabase(cfg.Database.PostgresDSN())
		if err != nil {
			return nil, err
		}
		users := store.NewGormRepository[identity.Identity](db, collectionUsers)
		listings := store.NewGormRepository[listing.Property](db, collectionListings)
		offers := store.NewGormRepository[offer.Offer](db, collectionOffers)
		payments := store.NewGormRepository[payment.Record](db, collectionPayments)
		wishlists := store.NewGormRepository[wishlist.Entry](db, collectionWishlists)
		reviews := store.NewGormRepository[review.Review](db, collectionReviews)
		for _, m := range []interface{ Migrate(context.Context) error }{users, listings, offers, payments, wishlists, reviews} {
			if err := m.Migrate(ctx); err != nil {
				logger.Error("failed to migrate table", zap.Error(err))
			}
		}
		var tx store.Transactor = store.NoopTransactor{}
		if cfg.Database.Transactions {
			tx = store.NewGormTransactor(db)
		}
		return &stores{
			users:     users,
			listings:  listings,
			offers:    offers,
			payments:  payments,
			wishlists: wishlists,
			reviews:   reviews,
			tx:        tx,
			close: func(context.Context) {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			users:     store.NewMemoryRepository[identity.Identity](store.WithUniqueFields("email")),
			listings:  store.NewMemoryRepository[listing.Property](),
			offers:    store.NewMemoryRepository[offer.Offer](),
			payments:  store.NewMemoryRepository[payment.Record](store.WithUniqueFields("propertyId")),
			wishlists: store.NewMemoryRepository[wishlist.Entry](),
			reviews:   store.NewMemoryRepository[review.Review](),
			tx:        store.NoopTransactor{},
			close:     func(context.Context) {},
		}, nil
	}
}
