package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	handler "chaindetect/internal/adapter/handler/http"
	"chaindetect/internal/adapter/rpc"
	"chaindetect/internal/adapter/storage/memory"
	"chaindetect/internal/application"
	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	"chaindetect/internal/logger"
	"chaindetect/internal/pkg/ratelimit"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	zapLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer zapLogger.Sync() // Ensure logs are flushed before exiting
	zapLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	// --- Endpoints ---
	endpoints, err := entity.NewEndpoints(cfg.Chains.Solana, map[entity.ChainID][]string{
		entity.ChainEthereum: cfg.Chains.Ethereum,
		entity.ChainBSC:      cfg.Chains.BSC,
		entity.ChainBase:     cfg.Chains.Base,
	})
	if err != nil {
		zapLogger.Fatal("Invalid endpoint configuration", zap.Error(err))
	}

	// --- Dependency Injection (Manual) ---
	zapLogger.Info("Initializing dependencies...")

	providerCache := memory.NewProviderCache(cfg.Detector, zapLogger)
	resolver := rpc.NewResolver(providerCache, cfg.Detector, zapLogger)
	evmProber := rpc.NewEVMProber(resolver, endpoints.EVM, cfg.Detector, zapLogger)
	solanaChecker := rpc.NewSolanaChecker(cfg.Detector, zapLogger)
	txChecker := rpc.NewTxChecker(cfg.Detector, zapLogger)
	limiter := ratelimit.NewFixedWindow(cfg.Detector.RateCeiling, cfg.Detector.GetRateWindow())

	detectService := application.NewDetectService(
		endpoints, solanaChecker, evmProber, txChecker, limiter, zapLogger, cfg.Detector,
	)

	detectHandler := handler.NewDetectHandler(detectService, zapLogger)

	// --- HTTP Router & Server ---
	zapLogger.Info("Setting up HTTP router...")
	r := router.New()
	handler.RegisterRoutes(r, detectHandler, zapLogger)

	serverAddr := ":" + cfg.Server.Port
	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr))

	if err := fasthttp.ListenAndServe(serverAddr, r.Handler); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
