// Command server runs the attribution and settlement pipeline.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	cataloghandler "attribune/internal/catalog/handler"
	catalogservice "attribune/internal/catalog/service"
	catalogstore "attribune/internal/catalog/store"
	certhandler "attribune/internal/certificate/handler"
	certservice "attribune/internal/certificate/service"
	"attribune/internal/certificate/signer"
	certstore "attribune/internal/certificate/store"
	claimshandler "attribune/internal/claims/handler"
	claimsservice "attribune/internal/claims/service"
	claimsstore "attribune/internal/claims/store"
	exporthandler "attribune/internal/export/handler"
	exportservice "attribune/internal/export/service"
	"attribune/internal/fusion/engine"
	fusionhandler "attribune/internal/fusion/handler"
	fusionservice "attribune/internal/fusion/service"
	fusionstore "attribune/internal/fusion/store"
	"attribune/internal/http/router"
	ingesthandler "attribune/internal/ingest/handler"
	ingestservice "attribune/internal/ingest/service"
	ingeststore "attribune/internal/ingest/store"
	"attribune/internal/jwtauth"
	"attribune/internal/ledger"
	"attribune/internal/matcher"
	partnerhandler "attribune/internal/partner/handler"
	partnerservice "attribune/internal/partner/service"
	partnerstore "attribune/internal/partner/store"
	"attribune/internal/platform/config"
	"attribune/internal/platform/httpserver"
	"attribune/internal/platform/kafka"
	"attribune/internal/platform/logger"
	"attribune/internal/platform/metrics"
	platformredis "attribune/internal/platform/redis"
	royaltyhandler "attribune/internal/royalty/handler"
	"attribune/internal/royalty/ratecard"
	royaltyservice "attribune/internal/royalty/service"
	royaltystore "attribune/internal/royalty/store"
	"attribune/migrations"
	id "attribune/pkg/domain"
)

const (
	tokenTTL        = time.Hour
	catalogCacheTTL = 5 * time.Minute
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	partners  partnerstore.PartnerStore
	events    ingeststore.EventStore
	results   fusionstore.ResultStore
	claims    claimsstore.ClaimStore
	certs     certstore.CertificateStore
	royalties royaltystore.RoyaltyStore
	catalog   catalogstore.WorkStore
	ledger    ledger.Store
}

func buildStores(log *slog.Logger, databaseURL string) (*stores, *sql.DB, error) {
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return &stores{
			partners:  partnerstore.NewInMemoryStore(),
			events:    ingeststore.NewInMemoryStore(),
			results:   fusionstore.NewInMemoryStore(),
			claims:    claimsstore.NewInMemoryStore(),
			certs:     certstore.NewInMemoryStore(),
			royalties: royaltystore.NewInMemoryStore(),
			catalog:   catalogstore.NewInMemoryStore(),
			ledger:    ledger.NewInMemoryStore(),
		}, nil, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Apply(context.Background(), db); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return &stores{
		partners:  partnerstore.NewPostgres(db),
		events:    ingeststore.NewPostgres(db),
		results:   fusionstore.NewPostgres(db),
		claims:    claimsstore.NewPostgres(db),
		certs:     certstore.NewPostgres(db),
		royalties: royaltystore.NewPostgres(db),
		catalog:   catalogstore.NewPostgres(db),
		ledger:    ledger.NewPostgres(db),
	}, db, nil
}

func buildBackends(cfg config.Server, m *metrics.Metrics) []matcher.MatchBackend {
	backends := make([]matcher.MatchBackend, 0, len(cfg.Auditors))
	for _, a := range cfg.Auditors {
		backends = append(backends, matcher.NewHTTPBackend(
			id.AuditorID(a.ID),
			a.URL,
			a.Reliability,
			cfg.Fusion.TopK,
			0,
			&http.Client{Timeout: cfg.Fusion.BackendTimeout},
			m,
		))
	}
	return backends
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, db, err := buildStores(log, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
	}

	card, err := ratecard.Load(cfg.RateCardPath)
	if err != nil {
		return fmt.Errorf("load rate card: %w", err)
	}
	sgn, err := signer.New(cfg.CertSigningSeed)
	if err != nil {
		return fmt.Errorf("load certificate signing key: %w", err)
	}
	if cfg.CertSigningSeed == "" {
		log.Warn("CERT_SIGNING_SEED not set, certificates use an ephemeral key")
	}

	var producer ledger.Producer
	topic := ""
	if kafkaClient != nil {
		producer = kafkaClient
		topic = kafkaClient.Topic()
	}
	ledgerPub := ledger.NewPublisher(st.ledger, producer, topic, log, m)

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "attribune", tokenTTL)
	partnerSvc := partnerservice.New(st.partners, tokens, log)

	var ingestOpts []ingestservice.Option
	if redisClient != nil {
		ingestOpts = append(ingestOpts, ingestservice.WithIdempotencyIndex(ingeststore.NewRedisIdempotencyIndex(redisClient)))
	}
	ingestSvc := ingestservice.New(st.events, partnerSvc, ledgerPub, m, log, ingestOpts...)

	requester := matcher.NewRequester(buildBackends(cfg, m), cfg.Fusion.BackendTimeout, m, log)
	fusionEngine := engine.New(engine.Config{
		MinBackends:        cfg.Fusion.MinBackends,
		ConfidenceDiscount: cfg.Fusion.ConfidenceDiscount,
		NoiseFloor:         cfg.Fusion.NoiseFloor,
	})
	fusionSvc := fusionservice.New(ingestSvc, requester, fusionEngine, st.results, ledgerPub, m, log)

	claimsSvc := claimsservice.New(fusionSvc, st.claims, ledgerPub, m, log)
	certSvc := certservice.New(claimsSvc, fusionSvc, ingestSvc, st.certs, sgn, ledgerPub, m, log)
	catalogSvc := catalogservice.New(st.catalog, catalogCacheTTL)
	royaltySvc := royaltyservice.New(claimsSvc, certSvc, fusionSvc, ingestSvc, catalogSvc, card, st.royalties, ledgerPub, m, log)
	exportSvc := exportservice.New(st.royalties, st.certs, claimsSvc, fusionSvc, catalogSvc)

	health := map[string]router.HealthChecker{}
	if db != nil {
		health["postgres"] = db.Ping
	}
	if redisClient != nil {
		health["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	handler := router.New(log, m, requestTimeout, health,
		partnerhandler.New(partnerSvc, log, cfg.AdminToken),
		ingesthandler.New(ingestSvc, log, tokens),
		fusionhandler.New(fusionSvc, log),
		claimshandler.New(claimsSvc, log),
		certhandler.New(certSvc, log),
		royaltyhandler.New(royaltySvc, log),
		cataloghandler.New(catalogSvc, log, cfg.AdminToken),
		exporthandler.New(exportSvc, log),
	)

	srv := httpserver.New(cfg.Addr, handler)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "auditor_backends", len(cfg.Auditors))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return httpserver.Shutdown(srv, shutdownTimeout)
}
