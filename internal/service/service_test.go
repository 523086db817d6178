package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/san-kum/ltilab/internal/cache"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/lti"
)

type countingCache struct {
	*cache.Memory
	hits, sets int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := c.Memory.Get(ctx, key)
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte) error {
	c.sets++
	return c.Memory.Set(ctx, key, value)
}

func TestEvaluate_Memoized(t *testing.T) {
	c := &countingCache{Memory: cache.NewMemory(8)}
	svc := New(c, nil)
	cfg := *config.GetPreset("pid-loop")

	first, err := svc.Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if c.sets != 1 || c.hits != 1 {
		t.Errorf("expected 1 set and 1 hit, got %d and %d", c.sets, c.hits)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Error("cached report differs from computed report")
	}
}

func TestEvaluate_ZeroMagnitudeSurvivesCache(t *testing.T) {
	svc := New(cache.NewMemory(8), nil)
	cfg := *config.DefaultConfig()
	cfg.Plant.K = 0

	if _, err := svc.Evaluate(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	r, err := svc.Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.Frequency.Len() != 50 {
		t.Fatalf("expected 50 frequency points, got %d", r.Frequency.Len())
	}
	if r.StepInfoError == "" {
		t.Error("expected undefined step info for zero gain")
	}
}

func TestEvaluate_DistinctKeys(t *testing.T) {
	a := *config.DefaultConfig()
	b := a
	b.Plant.T = 2

	ka, err := Key(a)
	if err != nil {
		t.Fatal(err)
	}
	kb, _ := Key(b)
	if ka == kb {
		t.Error("different configs share a key")
	}
	ka2, _ := Key(a)
	if ka != ka2 {
		t.Error("key not deterministic")
	}
}

func TestEvaluate_ErrorsNotCached(t *testing.T) {
	c := &countingCache{Memory: cache.NewMemory(8)}
	svc := New(c, nil)
	cfg := *config.DefaultConfig()
	cfg.Plant.Type = "arbitrary"
	cfg.Plant.C, cfg.Plant.D, cfg.Plant.E = 0, 0, 0

	_, err := svc.Evaluate(context.Background(), cfg)
	if !errors.Is(err, lti.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
	if c.sets != 0 {
		t.Error("error result was cached")
	}
}

func TestEvaluate_WarnsOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	svc := New(nil, log.New(&buf))
	cfg := *config.DefaultConfig()
	cfg.Plant.K = 5

	if _, err := svc.Evaluate(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("k=5")) {
		t.Errorf("expected range warning, got %q", buf.String())
	}
}
