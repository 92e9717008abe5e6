package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// PGPoolConfig holds connection pool settings for Postgres.
type PGPoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// pgDB is the subset of *pgxpool.Pool the store uses.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// HybridStore keeps the latest snapshot of every shaped record in Redis and
// upserts it into Postgres. Either backend may be absent.
type HybridStore struct {
	redis     *redis.Client
	pg        pgDB
	recordTTL time.Duration
	logger    *zap.Logger
}

// NewHybrid connects the configured backends. An empty redisAddr or
// databaseURL leaves that backend disabled.
func NewHybrid(
	ctx context.Context,
	redisAddr string,
	redisDB int,
	redisPass string,
	databaseURL string,
	pgCfg PGPoolConfig,
	recordTTL time.Duration,
	logger *zap.Logger,
) (*HybridStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HybridStore{recordTTL: recordTTL, logger: logger}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr, DB: redisDB, Password: redisPass})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		s.redis = rdb
	}

	if databaseURL != "" {
		poolCfg, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			s.closeRedis()
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		if pgCfg.MaxConns > 0 {
			poolCfg.MaxConns = pgCfg.MaxConns
		}
		if pgCfg.MaxConnLifetime > 0 {
			poolCfg.MaxConnLifetime = pgCfg.MaxConnLifetime
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			s.closeRedis()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.pg = pool
	}

	logger.Info("store.initialized",
		zap.Bool("redis", s.redis != nil),
		zap.Bool("postgres", s.pg != nil))
	return s, nil
}

// Enabled reports whether any backend is configured.
func (s *HybridStore) Enabled() bool {
	return s.redis != nil || s.pg != nil
}

// PostgresEnabled reports whether the Postgres backend is configured.
func (s *HybridStore) PostgresEnabled() bool { return s.pg != nil }

// Exec runs a statement on the Postgres pool.
func (s *HybridStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.pg == nil {
		return pgconn.CommandTag{}, errors.New("postgres not initialized")
	}
	return s.pg.Exec(ctx, sql, args...)
}

// Name identifies the store as a record sink.
func (s *HybridStore) Name() string { return "store" }

// Emit writes the record snapshot to Redis and upserts it into Postgres.
func (s *HybridStore) Emit(ctx context.Context, rec model.Record) error {
	var errs []error
	if s.redis != nil {
		if err := s.writeSnapshot(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pg != nil {
		if err := s.upsertRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeSnapshot stores rec in Redis. A degraded record never replaces an
// existing snapshot; the existing one only has its TTL refreshed.
func (s *HybridStore) writeSnapshot(ctx context.Context, rec model.Record) error {
	key := recordKey(rec.Kind, rec.ID)
	if rec.Degraded {
		kept, err := s.refreshSnapshot(ctx, key)
		if err != nil {
			s.logger.Warn("redis.refresh_failed", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("redis refresh %s: %w", key, err)
		}
		if kept {
			s.logger.Debug("store.degraded_snapshot_kept", zap.String("key", key))
			return nil
		}
	}
	return s.SetJSON(ctx, key, rec, s.recordTTL)
}

// refreshSnapshot reports whether key exists, extending its TTL when one is configured.
func (s *HybridStore) refreshSnapshot(ctx context.Context, key string) (bool, error) {
	if s.recordTTL > 0 {
		return s.redis.Expire(ctx, key, s.recordTTL).Result()
	}
	n, err := s.redis.Exists(ctx, key).Result()
	return n > 0, err
}

// GetRecord loads the latest snapshot of a record from Redis.
func (s *HybridStore) GetRecord(ctx context.Context, kind string, id int64) (*model.Record, error) {
	var rec model.Record
	if err := s.GetJSON(ctx, recordKey(kind, id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetJSON stores v as JSON under key with the given TTL (0 keeps it forever).
func (s *HybridStore) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.redis == nil {
		return errors.New("redis not initialized")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.redis.Set(ctx, key, b, ttl).Err(); err != nil {
		s.logger.Warn("redis.set_failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the JSON stored under key into dest.
func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	if s.redis == nil {
		return errors.New("redis not initialized")
	}
	b, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal(b, dest)
}

// HealthCheck pings every configured backend.
func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if !s.Enabled() {
		return errors.New("store: no backend configured")
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	if s.pg != nil {
		if err := s.pg.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

// Close releases both backends.
func (s *HybridStore) Close() error {
	var err error
	if s.redis != nil {
		err = s.redis.Close()
		s.redis = nil
	}
	if s.pg != nil {
		s.pg.Close()
		s.pg = nil
	}
	return err
}

func (s *HybridStore) closeRedis() {
	if s.redis != nil {
		_ = s.redis.Close()
		s.redis = nil
	}
}

func recordKey(kind string, id int64) string {
	return fmt.Sprintf("rentmanager:%s:%d", kind, id)
}
