package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/src/config"
	"github.com/username/wealthfolio/src/database"
	"github.com/username/wealthfolio/src/handlers"
	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/parsers"
	"github.com/username/wealthfolio/src/processors"
	"github.com/username/wealthfolio/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Wealthfolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing caches...")
	listCache := cache.New(cache.NoExpiration, 0)
	quoteCache := cache.New(config.Cfg.QuoteCacheTTL, 2*config.Cfg.QuoteCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	csvParser := parsers.NewCSVParser()
	costBasisProcessor := processors.NewCostBasisProcessor()
	holdingProcessor := processors.NewHoldingProcessor(costBasisProcessor)
	kpiProcessor := processors.NewKpiProcessor()
	debtProcessor := processors.NewDebtProcessor()

	portfolioService := services.NewPortfolioService(
		costBasisProcessor, holdingProcessor, kpiProcessor, debtProcessor,
		listCache,
	)
	priceService := services.NewPriceService(config.Cfg.PriceAPIBaseURL, config.Cfg.HTTPClientTimeout, quoteCache)
	rateService := services.NewRateService(config.Cfg.RateAPIURL, config.Cfg.HTTPClientTimeout, config.Cfg.DefaultExchangeRate)
	syncService := services.NewSyncService(config.Cfg.ScriptURL, config.Cfg.SyncDebounce, config.Cfg.HTTPClientTimeout, portfolioService)

	portfolioService.SetOnChange(syncService.Schedule)
	portfolioService.SetOnRealized(syncService.PushRealized)

	if syncService.Enabled() {
		logger.L.Info("Remote sync enabled, pulling remote state...")
		syncService.PullAll()
	} else {
		logger.L.Info("Remote sync disabled (no SCRIPT_URL configured).")
	}

	txHandler := handlers.NewTransactionHandler(portfolioService, csvParser)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, priceService, rateService)
	debtHandler := handlers.NewDebtHandler(portfolioService)
	interestHandler := handlers.NewInterestHandler(portfolioService)
	strategyHandler := handlers.NewStrategyHandler(portfolioService)
	syncHandler := handlers.NewSyncHandler(syncService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/transactions", txHandler.HandleGetTransactions)
	apiRouter.HandleFunc("POST /api/transactions", txHandler.HandleAddTransaction)
	apiRouter.HandleFunc("PUT /api/transactions/{id}", txHandler.HandleUpdateTransaction)
	apiRouter.HandleFunc("DELETE /api/transactions/{id}", txHandler.HandleDeleteTransaction)
	apiRouter.HandleFunc("POST /api/transactions/import", txHandler.HandleImportTransactions)
	apiRouter.HandleFunc("GET /api/transactions/import/template", txHandler.HandleGetImportTemplate)

	apiRouter.HandleFunc("GET /api/holdings", portfolioHandler.HandleGetHoldings)
	apiRouter.HandleFunc("GET /api/holdings/export", portfolioHandler.HandleExportHoldings)
	apiRouter.HandleFunc("GET /api/kpi", portfolioHandler.HandleGetKpi)
	apiRouter.HandleFunc("POST /api/prices/refresh", portfolioHandler.HandleRefreshPrices)
	apiRouter.HandleFunc("GET /api/exchange-rate", portfolioHandler.HandleGetExchangeRate)

	apiRouter.HandleFunc("GET /api/debts", debtHandler.HandleGetDebts)
	apiRouter.HandleFunc("POST /api/debts", debtHandler.HandleSaveDebt)
	apiRouter.HandleFunc("DELETE /api/debts/{id}", debtHandler.HandleDeleteDebt)
	apiRouter.HandleFunc("POST /api/debts/{id}/repayments", debtHandler.HandleRepayDebt)
	apiRouter.HandleFunc("GET /api/debts/stats", debtHandler.HandleGetDebtStats)

	apiRouter.HandleFunc("GET /api/interests", interestHandler.HandleGetInterests)
	apiRouter.HandleFunc("POST /api/interests", interestHandler.HandleSaveInterest)
	apiRouter.HandleFunc("DELETE /api/interests/{id}", interestHandler.HandleDeleteInterest)
	apiRouter.HandleFunc("GET /api/interests/income", interestHandler.HandleGetInterestIncome)

	apiRouter.HandleFunc("GET /api/strategy", strategyHandler.HandleGetStrategy)
	apiRouter.HandleFunc("PUT /api/strategy", strategyHandler.HandleSetStrategy)

	apiRouter.HandleFunc("GET /api/sync/status", syncHandler.HandleGetSyncStatus)
	apiRouter.HandleFunc("POST /api/sync/pull", syncHandler.HandlePullSync)
	apiRouter.HandleFunc("POST /api/sync/flush", syncHandler.HandleFlushSync)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Wealthfolio backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		syncService.Flush()
		logger.L.Info("Server stopped gracefully.")
	}
}
