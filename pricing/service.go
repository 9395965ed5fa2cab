package pricing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var ErrNoFareTable = errors.New("no fare table for branch or default")

const cacheTTL = 10 * time.Minute

// Service resolves branch fare rows from Postgres with a Redis read-through
// cache. Fare rows change rarely; a short TTL keeps operator edits visible.
type Service struct {
	db     *sqlx.DB
	cache  *redis.Client
	logger *slog.Logger
}

func NewService(db *sqlx.DB, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

func (s *Service) Price(ctx context.Context, branch string, minutes int) (int, error) {
	b, err := s.branch(ctx, branch)
	if err != nil {
		return 0, err
	}
	return Fare(b, minutes), nil
}

func (s *Service) branch(ctx context.Context, name string) (Branch, error) {
	if b, ok := s.cached(ctx, name); ok {
		return b, nil
	}

	var b Branch
	err := s.db.GetContext(ctx, &b, getBranchQuery, name)
	if errors.Is(err, sql.ErrNoRows) && name != DefaultBranch {
		err = s.db.GetContext(ctx, &b, getBranchQuery, DefaultBranch)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Branch{}, ErrNoFareTable
	}
	if err != nil {
		return Branch{}, err
	}

	s.store(ctx, name, b)
	return b, nil
}

const getBranchQuery = `SELECT branch, start_cost, free_minutes, per_minute_cost FROM branch_pricing WHERE branch = $1`

func (s *Service) cached(ctx context.Context, name string) (Branch, bool) {
	if s.cache == nil {
		return Branch{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("pricing cache read failed", "branch", name, "error", err)
		}
		return Branch{}, false
	}
	var b Branch
	if err := json.Unmarshal(raw, &b); err != nil {
		return Branch{}, false
	}
	return b, true
}

func (s *Service) store(ctx context.Context, name string, b Branch) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(name), raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("pricing cache write failed", "branch", name, "error", err)
	}
}

func cacheKey(name string) string {
	return "pricing:branch:" + name
}
