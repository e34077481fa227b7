package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 0},
		Cache:     CacheConfig{Driver: "memory"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownCacheDriver(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Cache:     CacheConfig{Driver: "memcached"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown cache driver")
	}

	expected := `cache.driver must be "memory" or "redis", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisDriverRequiresAddrs(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Cache:     CacheConfig{Driver: "redis"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_MissingModel(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "memory"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_PrefilterMultiplierRange(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Cache:     CacheConfig{Driver: "memory"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
		Search:    SearchConfig{PrefilterMultiplier: 1.5},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for prefilter multiplier > 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.ContentTTLSec != 600 {
		t.Errorf("expected ContentTTLSec=600, got %d", cfg.Cache.ContentTTLSec)
	}
	if cfg.Embedding.BatchSize != 3 {
		t.Errorf("expected BatchSize=3, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.Retry.MaxAttempts != 3 {
		t.Errorf("expected Retry.MaxAttempts=3, got %d", cfg.Embedding.Retry.MaxAttempts)
	}
	if cfg.Extract.FetchTimeoutMs != 5000 {
		t.Errorf("expected FetchTimeoutMs=5000, got %d", cfg.Extract.FetchTimeoutMs)
	}
	if cfg.Extract.MaxContentChars != 4000 {
		t.Errorf("expected MaxContentChars=4000, got %d", cfg.Extract.MaxContentChars)
	}
	if cfg.Extract.UserAgent == "" {
		t.Error("expected a default user agent")
	}
	if cfg.Search.DefaultThreshold != 0.3 {
		t.Errorf("expected DefaultThreshold=0.3, got %g", cfg.Search.DefaultThreshold)
	}
	if cfg.Search.PrefilterMultiplier != 0.7 {
		t.Errorf("expected PrefilterMultiplier=0.7, got %g", cfg.Search.PrefilterMultiplier)
	}
	if cfg.Search.DeepBatchSize != 3 {
		t.Errorf("expected DeepBatchSize=3, got %d", cfg.Search.DeepBatchSize)
	}
	if cfg.Search.ShortQueryFloor != 0.7 {
		t.Errorf("expected ShortQueryFloor=0.7, got %g", cfg.Search.ShortQueryFloor)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Cache:     CacheConfig{Driver: "redis", ContentTTLSec: 120, ReadinessTimeout: 15},
		Embedding: EmbeddingConfig{BatchSize: 8, RequestTimeoutSec: 5},
		Extract:   ExtractConfig{FetchTimeoutMs: 2000, ExportTimeoutMs: 1500, MaxContentChars: 2000},
		Search:    SearchConfig{DefaultThreshold: 0.5, PrefilterMultiplier: 0.8, DeepBatchSize: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.ContentTTLSec != 120 {
		t.Errorf("expected ContentTTLSec=120, got %d", cfg.Cache.ContentTTLSec)
	}
	if cfg.Embedding.BatchSize != 8 {
		t.Errorf("expected BatchSize=8, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Extract.FetchTimeoutMs != 2000 {
		t.Errorf("expected FetchTimeoutMs=2000, got %d", cfg.Extract.FetchTimeoutMs)
	}
	if cfg.Search.PrefilterMultiplier != 0.8 {
		t.Errorf("expected PrefilterMultiplier=0.8, got %g", cfg.Search.PrefilterMultiplier)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KBSEARCH_TEST_KEY", "secret")

	in := []byte("api_key: ${KBSEARCH_TEST_KEY}\nmodel: ${KBSEARCH_TEST_MODEL:-text-embedding-3-small}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: text-embedding-3-small\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
