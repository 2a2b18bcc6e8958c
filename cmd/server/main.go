package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"veriledger/internal/accesscontrol"
	"veriledger/internal/compliance"
	compliancehandler "veriledger/internal/compliance/handler"
	"veriledger/internal/identity/cache"
	"veriledger/internal/identity/claims"
	identityservice "veriledger/internal/identity/service"
	identitystore "veriledger/internal/identity/store"
	ledgerservice "veriledger/internal/ledger/service"
	"veriledger/internal/platform/config"
	"veriledger/internal/platform/httpserver"
	"veriledger/internal/platform/logger"
	"veriledger/internal/platform/metrics"
	"veriledger/internal/platform/middleware"
	platformredis "veriledger/internal/platform/redis"
	httptransport "veriledger/internal/transport/http"
	trusthandler "veriledger/internal/trust/handler"
	"veriledger/internal/trust/issuers"
	"veriledger/internal/trust/topics"
	"veriledger/pkg/domain"
	"veriledger/pkg/platform/events"
	"veriledger/pkg/platform/events/kafka"
	eventsmemory "veriledger/pkg/platform/events/store/memory"
	"veriledger/pkg/platform/events/publisher"
)

// main wires dependencies and runs the server. Business logic lives in the
// internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	m := metrics.New()
	owner := domain.ActorID(cfg.InitialOwner)

	// Audit trail: Kafka sink when brokers are configured, in-memory otherwise.
	var eventStore events.Store
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		eventStore = sink
		log.Info("kafka event sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		eventStore = eventsmemory.NewInMemoryStore()
	}
	pub := publisher.NewPublisher(eventStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer pub.Close()

	// Trust model.
	trustRoles := accesscontrol.New(owner)
	topicsReg := topics.New(trustRoles, cfg.Caps.MaxClaimTopics).WithEvents(pub)
	issuersReg := issuers.New(trustRoles, cfg.Caps.MaxTrustedIssuers, cfg.Caps.MaxIssuerClaimTopics).WithEvents(pub)

	// Identity registry storage.
	var bindingStore identitystore.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, identitystore.Schema); err != nil {
			return err
		}
		bindingStore = identitystore.NewPostgres(db)
		log.Info("postgres binding store enabled")
	} else {
		bindingStore = identitystore.NewInMemory()
	}

	// Verification cache.
	var verificationCache cache.Cache
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		verificationCache = cache.NewRedis(redisClient, cfg.VerificationCacheTTL, log)
		log.Info("redis verification cache enabled")
	} else {
		verificationCache = cache.NewInMemory(cfg.VerificationCacheTTL)
	}

	claimStore := claims.NewStore()

	identitySvc, err := identityservice.New(ctx, identityservice.Deps{
		RegistryID: "primary",
		Store:      bindingStore,
		Topics:     topicsReg,
		Issuers:    issuersReg,
		Verifier:   claimStore,
		Roles:      accesscontrol.New(owner),
		Cache:      verificationCache,
		Events:     pub,
		Metrics:    m,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	// Any trust or claim mutation can flip verification results; drop the
	// whole cache rather than chase affected wallets.
	topicsReg.OnChange(identitySvc.InvalidateAll)
	issuersReg.OnChange(identitySvc.InvalidateAll)
	claimStore.OnChange(identitySvc.InvalidateAll)

	complianceEngine := compliance.New(accesscontrol.New(owner), cfg.Caps.MaxComplianceModules, log).WithEvents(pub)

	ledgerSvc := ledgerservice.New(ledgerservice.Deps{
		Token: ledgerservice.TokenInfo{
			Name:     cfg.Token.Name,
			Symbol:   cfg.Token.Symbol,
			Decimals: cfg.Token.Decimals,
		},
		Identity:   identitySvc,
		Compliance: complianceEngine,
		Roles:      accesscontrol.New(owner),
		Events:     pub,
		Metrics:    m,
		Logger:     log,
	})
	// Modules bound at runtime seed their counters from the live ledger.
	complianceEngine.WithState(ledgerSvc)

	router := httptransport.NewRouter(httptransport.Deps{
		Identity:   identitySvc,
		Claims:     claimStore,
		Trust:      trusthandler.New(topicsReg, issuersReg, log),
		Compliance: compliancehandler.New(complianceEngine, identitySvc, log),
		Ledger:     ledgerSvc,
		Events:     pub,
		Checker:    ledgerSvc,
		Validator:  middleware.NewHMACValidator(cfg.JWTSigningKey),
		Metrics:    m,
		Logger:     log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting veriledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
