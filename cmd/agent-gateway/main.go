package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"health-agents/internal/chat"
	"health-agents/internal/common/config"
	"health-agents/internal/common/httpclient"
	"health-agents/internal/common/logger"
	"health-agents/internal/common/observability"
	"health-agents/internal/gateway"
	"health-agents/internal/orchestrator"
	"health-agents/internal/report"
	"health-agents/internal/retrieval"
	"health-agents/internal/security"
	"health-agents/internal/timeseries"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting agent gateway", map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
		"env":     cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	var cache *redis.Client
	if cfg.Cache.Redis.Enabled {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, cache disabled", map[string]interface{}{"error": err.Error()})
			cache = nil
		}
		cancel()
	}

	// Retrieval pipeline
	fetchers := retrieval.NewFetchers(cfg.Upstreams)
	wbClient := httpclient.NewClient(time.Duration(cfg.Upstreams.WorldBank.Timeout) * time.Millisecond)
	wikiClient := httpclient.NewClient(time.Duration(cfg.Upstreams.Wikipedia.Timeout) * time.Millisecond)
	wiki := retrieval.NewWikiClient(wikiClient, cfg.Upstreams.Wikipedia.BaseURL,
		cache, time.Duration(cfg.Cache.Redis.TTL)*time.Second)

	adapters := []retrieval.FactsAdapter{
		retrieval.NewFluSurvAdapter(),
		retrieval.NewWorldBankAdapter(wbClient, cfg.Upstreams.WorldBank.BaseURL),
	}
	retrievalAgent := retrieval.NewAgent(adapters, fetchers, wiki, retrieval.NewGazetteerRecognizer(), log)

	// Report pipeline
	reconciler := timeseries.NewReconciler(cfg, log)
	assembler := report.NewAssembler(reconciler, report.NewHTMLRenderer(), cfg, log)

	// Security
	var oracle security.Oracle
	if cfg.Security.BaseURL != "" {
		oracle = security.NewHTTPOracle(cfg.Security, log)
	} else {
		agent, err := security.NewAgent(cfg.Security.Username, cfg.Security.Password, log)
		if err != nil {
			log.Error("security agent init failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		oracle = security.NewLocalOracle(agent)
	}

	chatEngine := chat.NewEngine(rand.New(rand.NewSource(time.Now().UnixNano())))
	router := orchestrator.NewRouter(oracle, cfg.Security, retrievalAgent, assembler, chatEngine, log)

	srv := gateway.NewServer(cfg, log, obs, router, retrievalAgent, assembler, oracle)
	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		log.Info("listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if cache != nil {
		_ = cache.Close()
	}
}
