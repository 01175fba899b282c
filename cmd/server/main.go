package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/rahat-c2c/disburse/internal/auth"
	"github.com/rahat-c2c/disburse/internal/events"
	"github.com/rahat-c2c/disburse/internal/middleware"
	"github.com/rahat-c2c/disburse/internal/notify"
	"github.com/rahat-c2c/disburse/internal/rpc"
	"github.com/rahat-c2c/disburse/internal/safe"
	"github.com/rahat-c2c/disburse/internal/service"
	"github.com/rahat-c2c/disburse/internal/storage/sqlite"
	"github.com/rahat-c2c/disburse/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("required environment variable missing", "key", key)
		os.Exit(1)
	}
	return value
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/disburse.db")
	port := getEnv("PORT", "8080")
	txServiceURL := mustEnv("SAFE_TX_SERVICE_URL")
	chainRPCURL := mustEnv("CHAIN_RPC_URL")
	proposerKey := mustEnv("PROPOSER_PRIVATE_KEY")
	jwtSecret := mustEnv("JWT_SECRET")
	webhookURL := os.Getenv("WEBHOOK_URL")

	chainID, err := strconv.ParseInt(getEnv("CHAIN_ID", "11155111"), 10, 64)
	if err != nil {
		slog.Error("bad CHAIN_ID", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	signer, err := safe.NewSigner(proposerKey)
	if err != nil {
		slog.Error("Failed to load proposer key", "error", err)
		os.Exit(1)
	}
	gateway := safe.NewClient(txServiceURL, safe.DefaultTimeout)
	chain := safe.NewChainClient(chainRPCURL, safe.DefaultTimeout)
	slog.Info("Gateway clients ready",
		"tx_service", txServiceURL,
		"chain_id", chainID,
		"proposer", signer.Address(),
	)

	emitter := events.NewEmitter(256)
	defer emitter.Close()

	var notifier service.Notifier = service.NopNotifier{}
	if webhookURL != "" {
		notifier = notify.NewWebhook(webhookURL)
		slog.Info("Webhook notifications enabled", "url", webhookURL)
	}

	disbursements := service.NewDisbursementService(store, emitter, notifier)
	multisig := service.NewMultisigService(store, gateway, chain, signer, chainID)
	beneficiaries := service.NewBeneficiaryService(store)
	reconcile := service.NewReconcileService(store, gateway)

	// Recompute stat rows after every ledger write. Runs on the emitter's
	// dispatch goroutine, off the request path.
	refreshStats := func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := reconcile.SaveAllStats(ctx); err != nil {
			slog.Warn("stats refresh failed", "error", err)
		}
	}
	emitter.Subscribe(events.DisbursementCreated, refreshStats)
	emitter.Subscribe(events.DisbursementCompleted, refreshStats)

	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	disbursementPath, disbursementHandler := rpc.NewDisbursementServiceHandler(disbursements, interceptors)
	mux.Handle(disbursementPath, disbursementHandler)

	multisigPath, multisigHandler := rpc.NewMultisigServiceHandler(multisig, interceptors)
	mux.Handle(multisigPath, multisigHandler)

	beneficiaryPath, beneficiaryHandler := rpc.NewBeneficiaryServiceHandler(beneficiaries, interceptors)
	mux.Handle(beneficiaryPath, beneficiaryHandler)

	statsPath, statsHandler := rpc.NewStatsServiceHandler(reconcile, interceptors)
	mux.Handle(statsPath, statsHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// h2c allows HTTP/2 without TLS, required for Connect clients behind the
	// internal load balancer.
	h2cHandler := h2c.NewHandler(mux, &http2.Server{})

	addr := fmt.Sprintf(":%s", port)
	slog.Info("Connect server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
