package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/internal/httpclient"
	"github.com/Checker-Finance/rentmanager-adapter/internal/jobs"
	"github.com/Checker-Finance/rentmanager-adapter/internal/metrics"
	"github.com/Checker-Finance/rentmanager-adapter/internal/publisher"
	"github.com/Checker-Finance/rentmanager-adapter/internal/rentmanager"
	internalsecrets "github.com/Checker-Finance/rentmanager-adapter/internal/secrets"
	"github.com/Checker-Finance/rentmanager-adapter/internal/store"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/config"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/logger"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/secrets"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var extraOutputs []string
	if cfg.LogFile != "" {
		extraOutputs = append(extraOutputs, cfg.LogFile)
	}
	zl, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel, extraOutputs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(zl)
	logg := zl.Sugar()
	logg.Info("starting [rentmanager-adapter]...")

	// --- Credentials (env or AWS Secrets Manager) ---
	creds, err := resolveCredentials(ctx, cfg, zl)
	if err != nil {
		logg.Fatalw("failed to resolve Rent Manager credentials", "error", err)
	}

	// --- Rent Manager client ---
	rest := httpclient.New(zl, nil, cfg.HTTPTimeout)
	rmClient := rentmanager.NewClient(zl, rest, cfg.BaseURL, creds)
	if err := rmClient.Authenticate(ctx); err != nil {
		logg.Fatalw("rentmanager.authentication_failed", "base_url", rmClient.BaseURL(), "error", err)
	}

	// --- Sinks ---
	var sinks []rentmanager.Sink

	var pub *publisher.Publisher
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err = publisher.New(nc, cfg.NATSSubjectPrefix, zl)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		sinks = append(sinks, pub)
	}

	var st *store.HybridStore
	if cfg.RedisAddr != "" || cfg.DatabaseURL != "" {
		logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
		st, err = store.NewHybrid(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.DatabaseURL, store.PGPoolConfig{
			MaxConns:        int32(cfg.PGMaxConns),
			MaxConnLifetime: cfg.PGMaxConnLifetime,
		}, cfg.RecordTTL, zl)
		if err != nil {
			logg.Fatalw("failed to init store", "error", err)
		}
		if err := st.HealthCheck(ctx); err != nil {
			logg.Fatalw("store health check failed", "error", err)
		}
		if err := st.EnsureSchema(ctx); err != nil {
			logg.Fatalw("failed to ensure record schema", "error", err)
		}
		sinks = append(sinks, st)
	}

	// --- Sync ---
	svc := rentmanager.NewService(zl, rmClient, sinks...)
	var pruner *jobs.StalePruner
	if st != nil && st.PostgresEnabled() {
		var events jobs.EventPublisher
		if pub != nil {
			events = pub
		}
		pruner = jobs.NewStalePruner(zl, st, events)
	}
	failed := runSyncs(ctx, cfg, svc, pub, pruner, zl)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, cfg.ServiceName); err != nil {
			logg.Warnw("metrics.push_failed", "error", err)
		}
		cancel()
	}

	logg.Info("shutting down [rentmanager-adapter]...")
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if st != nil {
		if err := st.Close(); err != nil {
			logg.Warnw("store.close_failed", "error", err)
		}
	}

	if failed {
		logger.Sync(zl)
		os.Exit(1)
	}
}

// resolveCredentials prefers AWS Secrets Manager when a secret name is configured.
func resolveCredentials(ctx context.Context, cfg *config.Config, zl *zap.Logger) (rentmanager.Credentials, error) {
	if cfg.CredentialsSecret == "" {
		return rentmanager.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
			BaseURL:  cfg.BaseURL,
		}, nil
	}

	awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
	if err != nil {
		return rentmanager.Credentials{}, fmt.Errorf("create AWS Secrets Manager provider: %w", err)
	}
	resolver := internalsecrets.NewCredentialResolver(zl, awsProvider, secrets.NewCache[rentmanager.Credentials](cfg.CacheTTL))
	creds, err := resolver.Resolve(ctx, cfg.CredentialsSecret)
	if err != nil {
		return rentmanager.Credentials{}, err
	}
	if creds.BaseURL == "" && cfg.BaseURL == "" {
		return rentmanager.Credentials{}, fmt.Errorf("secret %q has no base_url and RM_BASE_URL is not set", cfg.CredentialsSecret)
	}
	return creds, nil
}

// runSyncs runs the enabled syncs in order, publishes each summary and prunes
// rows the run did not touch.
// It reports whether any sync failed.
func runSyncs(
	ctx context.Context,
	cfg *config.Config,
	svc *rentmanager.Service,
	pub *publisher.Publisher,
	pruner *jobs.StalePruner,
	zl *zap.Logger,
) bool {
	type job struct {
		enabled bool
		kind    string
		run     func(context.Context) (*model.SyncSummary, error)
	}
	syncs := []job{
		{cfg.SyncProperties, model.KindProperty, svc.SyncProperties},
		{cfg.SyncUnits, model.KindUnit, svc.SyncUnits},
	}

	failed := false
	for _, j := range syncs {
		if !j.enabled {
			continue
		}
		sum, err := j.run(ctx)
		if err != nil {
			zl.Error("rentmanager.sync_failed", zap.String("kind", j.kind), zap.Error(err))
			failed = true
			continue
		}
		if pub != nil {
			if err := pub.Publish(ctx, "summary", sum); err != nil {
				zl.Warn("rentmanager.summary_publish_failed", zap.String("kind", j.kind), zap.Error(err))
			}
		}
		if pruner != nil {
			if _, err := pruner.RunOnce(ctx, sum); err != nil {
				zl.Warn("rentmanager.prune_failed", zap.String("kind", j.kind), zap.Error(err))
			}
		}
	}
	return failed
}
