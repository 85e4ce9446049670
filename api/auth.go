package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-pg/pg/v10"
	"github.com/go-redis/redis_rate/v10"
	lru "github.com/hashicorp/golang-lru"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model/auth"
	"github.com/gavelhq/gavel/storage"
)

// A TokenSource resolves an Authorization key to its token row. Lookups for
// unknown or revoked keys return (nil, nil).
type TokenSource interface {
	Lookup(ctx context.Context, key string) (*auth.Token, error)
}

// TokenStore resolves tokens against the database through an LRU cache.
// Only live tokens are cached, so a revoked token stays usable at most until
// its cache entry is evicted.
type TokenStore struct {
	db    *storage.Database
	cache *lru.Cache
}

func NewTokenStore(db *storage.Database, cacheSize int) (*TokenStore, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &TokenStore{db: db, cache: cache}, nil
}

func (t *TokenStore) Lookup(ctx context.Context, key string) (*auth.Token, error) {
	if v, ok := t.cache.Get(key); ok {
		metrics.RecordCount(ctx, metrics.TokenCacheHit, 1)
		return v.(*auth.Token), nil
	}
	metrics.RecordCount(ctx, metrics.TokenCacheMiss, 1)

	tok := new(auth.Token)
	err := t.db.AsORM().ModelContext(ctx, tok).
		Where("key = ?", key).
		Where("revoked = FALSE").
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	t.cache.Add(key, tok)
	return tok, nil
}

type tokenContextKey struct{}

// tokenFrom returns the token authenticated for this request. Handlers behind
// the authenticate middleware always find one.
func tokenFrom(ctx context.Context) *auth.Token {
	tok, _ := ctx.Value(tokenContextKey{}).(*auth.Token)
	return tok
}

// authenticate enforces the Authorization header on every endpoint. The
// header carries "Token <key>"; anonymous and unknown keys are rejected 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			w.Header().Set("WWW-Authenticate", "Token")
			s.writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") || parts[1] == "" {
			w.Header().Set("WWW-Authenticate", "Token")
			s.writeError(w, http.StatusUnauthorized, "Invalid token header.")
			return
		}

		tok, err := s.tokens.Lookup(r.Context(), parts[1])
		if err != nil {
			log.Errorw("token lookup failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		if tok == nil {
			w.Header().Set("WWW-Authenticate", "Token")
			s.writeError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey{}, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRecapPermission gates the endpoints restricted to select users. The
// 403 body carries the configured contact message.
func (s *Server) requireRecapPermission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := tokenFrom(r.Context())
		if tok == nil || !tok.HasRecapPermission {
			s.writeError(w, http.StatusForbidden, s.cfg.PermissionDeniedMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies the per-token GCRA budget. Redis failures log and let the
// request through rather than taking the endpoint down with the limiter.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil || s.cfg.RateLimitPerMin <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := tokenFrom(r.Context())
		res, err := s.limiter.Allow(r.Context(), "api-rate:"+tok.Key, redis_rate.PerMinute(s.cfg.RateLimitPerMin))
		if err != nil {
			log.Warnw("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if res.Allowed == 0 {
			metrics.RecordCount(r.Context(), metrics.RateLimited, 1)
			wait := int(res.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(wait))
			s.writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait))
			return
		}
		next.ServeHTTP(w, r)
	})
}
