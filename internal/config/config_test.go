package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Driver: "redis", Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{Dimensions: 768},
		Search:    SearchConfig{VectorWeight: 0.70, LexicalWeight: 0.30},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "memory"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_MissingDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding dimensions")
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Search.VectorWeight = 0.6
	cfg.Search.LexicalWeight = 0.3

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Search.VectorWeight != 0.70 || cfg.Search.LexicalWeight != 0.30 {
		t.Errorf("expected default weights 0.70/0.30, got %g/%g",
			cfg.Search.VectorWeight, cfg.Search.LexicalWeight)
	}
	if cfg.Search.FanOutFactor != 5 {
		t.Errorf("expected FanOutFactor=5, got %d", cfg.Search.FanOutFactor)
	}
	if cfg.Search.MinCandidates != 50 {
		t.Errorf("expected MinCandidates=50, got %d", cfg.Search.MinCandidates)
	}
	if cfg.Search.StageTimeoutMS != 2000 {
		t.Errorf("expected StageTimeoutMS=2000, got %d", cfg.Search.StageTimeoutMS)
	}
	if cfg.Answer.ContextDocs != 5 {
		t.Errorf("expected ContextDocs=5, got %d", cfg.Answer.ContextDocs)
	}
	if cfg.Answer.AbstractLimit != 300 {
		t.Errorf("expected AbstractLimit=300, got %d", cfg.Answer.AbstractLimit)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Catalog.BatchSize != 50 {
		t.Errorf("expected BatchSize=50, got %d", cfg.Catalog.BatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "memory", ReadinessTimeout: 15},
		Search:   SearchConfig{VectorWeight: 0.5, LexicalWeight: 0.5, FanOutFactor: 3},
		Index:    IndexConfig{HNSWM: 16, HNSWEFConstruct: 200},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Search.VectorWeight != 0.5 {
		t.Errorf("expected VectorWeight=0.5, got %g", cfg.Search.VectorWeight)
	}
	if cfg.Search.FanOutFactor != 3 {
		t.Errorf("expected FanOutFactor=3, got %d", cfg.Search.FanOutFactor)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GEORAG_TEST_KEY", "secret")

	out := string(expandEnvVars([]byte("api_key: ${GEORAG_TEST_KEY}\nurl: ${GEORAG_MISSING:-http://localhost}")))
	if out != "api_key: secret\nurl: http://localhost" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
