package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/veloria/storefront/config"
	"github.com/veloria/storefront/internal/cart"
	"github.com/veloria/storefront/internal/catalog"
	"github.com/veloria/storefront/internal/category"
	"github.com/veloria/storefront/internal/database"
	"github.com/veloria/storefront/internal/handlers"
	"github.com/veloria/storefront/internal/httpx"
	"github.com/veloria/storefront/internal/middleware"
	"github.com/veloria/storefront/internal/pricing"
	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting storefront service")

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, carts will not survive restarts")
	} else {
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	}

	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = database.Connect(
			ctx,
			cfg.Database.URL,
			cfg.Database.MaxConnections,
			cfg.Database.MinConnections,
			cfg.Database.MaxConnLifetime,
			cfg.Database.MaxConnIdleTime,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("Database connected")
	} else {
		logger.Info().Msg("No database configured, direct catalog fallback disabled")
	}

	cascade := buildCascade(cfg, pool, logger)
	categories := category.NewService(catalogClient(cfg, categoryBaseURL(cfg)), cfg.Catalog.CategoryStaleTTL)
	defer categories.Close()

	promos, stocks := buildValidators(cfg)

	carts := cart.NewManager(cart.ManagerConfig{
		Calculator: buildCalculator(cfg),
		Totals: cart.TotalsConfig{
			TaxRate:   cfg.Pricing.TaxRate,
			Precision: cfg.Pricing.Precision,
		},
		Stock:       stocks,
		Promos:      promos,
		Repository:  cart.NewRedisRepository(rdb, cfg.Cart.TTL),
		TTL:         cfg.Cart.TTL,
		DefaultTier: cfg.Cart.DefaultTier,
	})

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	catalogHandler := handlers.NewCatalogHandler(cascade)
	categoryHandler := handlers.NewCategoryHandler(categories)
	cartHandler := handlers.NewCartHandler(carts)
	validationHandler := handlers.NewValidationHandler(promos, stocks)
	healthHandler := handlers.NewHealthHandler(rdb, pool, categories)

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	{
		api.GET("/catalog/products", catalogHandler.ListProducts)
		api.GET("/catalog/categories/tree", categoryHandler.GetCategoryTree)
		api.GET("/catalog/categories/:handle/breadcrumbs", categoryHandler.GetBreadcrumbs)
		api.GET("/categories", categoryHandler.ListCategories)

		api.POST("/promo/validate", validationHandler.ValidatePromo)
		api.POST("/stock/validate", validationHandler.ValidateStock)

		cartRoutes := api.Group("/cart/:sessionId")
		{
			cartRoutes.GET("", cartHandler.GetCart)
			cartRoutes.DELETE("", cartHandler.ClearCart)
			cartRoutes.POST("/items", cartHandler.AddItem)
			cartRoutes.PATCH("/items/:productId/quantity", cartHandler.UpdateQuantity)
			cartRoutes.PATCH("/items/:productId/notes", cartHandler.UpdateNotes)
			cartRoutes.PATCH("/items/:productId/warehouse", cartHandler.UpdateWarehouse)
			cartRoutes.DELETE("/items/:productId", cartHandler.RemoveItem)
			cartRoutes.POST("/promo", cartHandler.ApplyPromo)
			cartRoutes.DELETE("/promo", cartHandler.RemovePromo)
			cartRoutes.GET("/stock", cartHandler.ValidateCartStock)
			cartRoutes.POST("/saved", cartHandler.SaveCart)
			cartRoutes.GET("/saved", cartHandler.ListSaved)
			cartRoutes.POST("/saved/:savedId/load", cartHandler.LoadSaved)
			cartRoutes.DELETE("/saved/:savedId", cartHandler.DeleteSaved)
		}
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Internal.APIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", healthHandler.Check)
		internal.POST("/catalog/cache/invalidate", catalogHandler.InvalidateSearchCache)
		internal.POST("/categories/invalidate", categoryHandler.InvalidateCategoryCache)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// buildCascade wires the configured search backends in fallback order:
// search index, then origin API, then the direct database read.
func buildCascade(cfg *config.Config, pool *pgxpool.Pool, logger *zerolog.Logger) *catalog.Cascade {
	var backends []catalog.SearchBackend

	if cfg.Catalog.SearchIndexURL != "" {
		backends = append(backends, catalog.NewSearchIndexBackend(
			catalogClient(cfg, cfg.Catalog.SearchIndexURL), cfg.Catalog.SearchIndexName))
	}
	if cfg.Catalog.OriginURL != "" {
		backends = append(backends, catalog.NewOriginBackend(catalogClient(cfg, cfg.Catalog.OriginURL)))
	}
	if pool != nil {
		backends = append(backends, catalog.NewDirectBackend(pool))
	}

	if len(backends) == 0 {
		logger.Warn().Msg("No search backends configured, every search will return the empty result")
	}
	return catalog.NewCascade(cfg.Catalog.ResultCacheTTL, backends...)
}

// buildCalculator feeds the pricing engine its policy data: price lists and
// volume tiers from config when present, the built-in defaults otherwise.
func buildCalculator(cfg *config.Config) *pricing.Calculator {
	lists := make([]pricing.PriceList, 0, len(cfg.Pricing.PriceLists))
	for _, pl := range cfg.Pricing.PriceLists {
		lists = append(lists, pricing.PriceList{
			ID:              pl.ID,
			Name:            pl.Name,
			Tier:            pl.Tier,
			DiscountPercent: pl.DiscountPercent,
			Priority:        pl.Priority,
			Promotional:     pl.Promotional,
		})
	}
	if len(lists) == 0 {
		lists = pricing.DefaultPriceLists()
	}

	volumes := make(map[string][]pricing.VolumeDiscount)
	for _, vt := range cfg.Pricing.VolumeTiers {
		volumes[vt.ProductID] = append(volumes[vt.ProductID], pricing.VolumeDiscount{
			MinQuantity:     vt.MinQuantity,
			DiscountPercent: vt.DiscountPercent,
			Label:           vt.Label,
		})
	}
	if len(volumes) == 0 {
		volumes = pricing.DefaultVolumeDiscounts()
	}

	return pricing.NewCalculator(pricing.CalculatorConfig{
		Currency:  cfg.Pricing.Currency,
		TaxRate:   cfg.Pricing.TaxRate,
		Precision: cfg.Pricing.Precision,
	}, lists, volumes)
}

// buildValidators picks HTTP validators when an origin API is configured,
// static in-process tables otherwise.
func buildValidators(cfg *config.Config) (promo.Validator, stock.Validator) {
	if cfg.Catalog.OriginURL != "" {
		client := catalogClient(cfg, cfg.Catalog.OriginURL)
		return promo.NewHTTPValidator(client), stock.NewHTTPValidator(client)
	}
	return promo.NewStaticValidator(promo.DefaultCodes()), stock.NewStaticValidator(nil)
}

func categoryBaseURL(cfg *config.Config) string {
	if cfg.Catalog.CategoryURL != "" {
		return cfg.Catalog.CategoryURL
	}
	return cfg.Catalog.OriginURL
}

func catalogClient(cfg *config.Config, baseURL string) *httpx.Client {
	clientCfg := httpx.DefaultConfig(baseURL)
	clientCfg.Timeout = cfg.Catalog.RequestTimeout
	clientCfg.Retries = cfg.Catalog.Retries
	return httpx.NewClient(clientCfg)
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "storefront").Logger()
	return &logger
}
