// Package service evaluates configs, memoizing reports by their full
// parameter tuple.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/ltilab/internal/cache"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
)

// keyVersion changes whenever the encoded Report layout does.
const keyVersion = "report/v1"

type Service struct {
	cache  cache.Cache
	logger *log.Logger
}

// New returns a service backed by c. A nil cache disables memoization and
// a nil logger discards output.
func New(c cache.Cache, logger *log.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &Service{cache: c, logger: logger}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Key identifies cfg in the cache.
func Key(cfg config.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return cache.Key(append([]byte(keyVersion+"\n"), data...)), nil
}

// Evaluate returns the report for cfg, from the cache when possible. Errors
// are never cached.
func (s *Service) Evaluate(ctx context.Context, cfg config.Config) (*response.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range cfg.CheckRanges() {
		s.logger.Warn("parameter outside explorer range", "violation", v.String())
	}

	key, err := Key(cfg)
	if err != nil {
		return nil, err
	}
	if data, ok := s.cache.Get(ctx, key); ok {
		var r response.Report
		if err := json.Unmarshal(data, &r); err == nil {
			s.logger.Debug("cache hit", "key", key)
			return &r, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	start := time.Now()
	r, err := s.compute(ctx, cfg)
	if err != nil {
		s.logger.Debug("evaluation failed", "key", key, "err", err)
		return nil, err
	}
	s.logger.Debug("evaluated", "key", key, "system", r.Name, "samples", r.Time.Len(), "elapsed", time.Since(start))

	data, err := json.Marshal(r)
	if err != nil {
		s.logger.Warn("report not cacheable", "key", key, "err", err)
		return r, nil
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
	return r, nil
}

func (s *Service) compute(ctx context.Context, cfg config.Config) (*response.Report, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	in, err := cfg.Signal()
	if err != nil {
		return nil, err
	}
	return response.NewEvaluator(cfg.Options()).Evaluate(ctx, params, cfg.Grid(), in)
}
