package control

import (
	"context"
	"os"
	"testing"

	"github.com/vietddude/genpost/internal/core/config"
	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/imagegen/fake"
	"github.com/vietddude/genpost/internal/infra/imagegen/openai"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Generation.Provider = config.ProviderFake
	cfg.Staging.Dir = t.TempDir()
	cfg.Retry.BaseDelay = 1
	cfg.Retry.Jitter = 1
	return cfg
}

func TestApp_RunBatchInMemory(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Stop(context.Background())

	items := []domain.BatchItem{
		{Request: domain.GenerationRequest{Prompt: "a"}, Caption: "1"},
		{Request: domain.GenerationRequest{Prompt: "b"}, Caption: "2"},
		{Request: domain.GenerationRequest{Prompt: "c"}, Caption: "3"},
	}
	res := app.RunBatch(context.Background(), items, 2)
	if res.Succeeded() != 3 {
		t.Fatalf("expected 3 successes, got %d", res.Succeeded())
	}

	st, err := app.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Posts != 3 || len(st.Pending) != 0 {
		t.Errorf("unexpected status %+v", st)
	}

	entries, _ := os.ReadDir(cfg.Staging.Dir)
	if len(entries) != 0 {
		t.Errorf("expected empty staging dir, found %d files", len(entries))
	}
}

func TestApp_FailedRunIsRecordedAndReplayed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generation.FailFirst = 3 // exhausts the first run's three attempts
	cfg.Replay.InitialDelay = 1
	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	out := app.RunOne(context.Background(), domain.BatchItem{Request: domain.GenerationRequest{Prompt: "x"}, Caption: "c"})
	if !out.Failed() || out.Err.Kind != domain.ErrorKindRetryable {
		t.Fatalf("expected retryable failure, got %+v", out)
	}

	st, _ := app.Status(context.Background())
	if len(st.Pending) != 1 || st.Pending[0].Prompt != "x" {
		t.Fatalf("expected one pending item, got %+v", st.Pending)
	}

	sum, err := app.replay.Drain(context.Background(), 1)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if sum.Resolved != 1 {
		t.Errorf("expected replay to resolve the item, got %+v", sum)
	}

	st, _ = app.Status(context.Background())
	if st.Posts != 1 || len(st.Pending) != 0 {
		t.Errorf("unexpected status after replay %+v", st)
	}
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	g, err := NewGenerator(ctx, config.GenerationConfig{Provider: config.ProviderFake}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*fake.Generator); !ok {
		t.Errorf("expected fake generator, got %T", g)
	}

	g, err = NewGenerator(ctx, config.GenerationConfig{Provider: config.ProviderOpenAI, APIKey: "k"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*openai.Client); !ok {
		t.Errorf("expected openai client, got %T", g)
	}

	if _, err := NewGenerator(ctx, config.GenerationConfig{Provider: config.ProviderOpenAI}, 0); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewGenerator(ctx, config.GenerationConfig{Provider: "nope"}, 0); err == nil {
		t.Error("expected error for unknown provider")
	}
}
