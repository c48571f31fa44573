package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vietddude/genpost/internal/core/domain"
)

// echoExecutor succeeds with the prompt as record id, failing prompts that
// start with "fail".
type echoExecutor struct {
	mu      sync.Mutex
	workers map[int]bool
}

func (e *echoExecutor) Execute(ctx context.Context, req domain.GenerationRequest, caption string) domain.Outcome {
	e.mu.Lock()
	if e.workers == nil {
		e.workers = make(map[int]bool)
	}
	e.workers[domain.WorkerFrom(ctx)] = true
	e.mu.Unlock()

	if strings.HasPrefix(req.Prompt, "fail") {
		return domain.Failed(domain.ErrorKindFatal, domain.StageGenerate, 1, fmt.Errorf("failed %s", req.Prompt))
	}
	return domain.Success(domain.PublishResult{RecordID: req.Prompt})
}

func items(prompts ...string) []domain.BatchItem {
	out := make([]domain.BatchItem, len(prompts))
	for i, p := range prompts {
		out[i] = domain.BatchItem{Request: domain.GenerationRequest{Prompt: p}, Caption: "c"}
	}
	return out
}

func TestBatchRunner_OrderPreserved(t *testing.T) {
	var prompts []string
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			prompts = append(prompts, fmt.Sprintf("fail-%d", i))
		} else {
			prompts = append(prompts, fmt.Sprintf("ok-%d", i))
		}
	}

	r := NewBatchRunner(&echoExecutor{}, nil)
	r.maxProcs = func() int { return 4 }

	res := r.Run(context.Background(), items(prompts...), 4)
	if len(res.Outcomes) != len(prompts) {
		t.Fatalf("expected %d outcomes, got %d", len(prompts), len(res.Outcomes))
	}
	for i, out := range res.Outcomes {
		if strings.HasPrefix(prompts[i], "fail") {
			if !out.Failed() || !strings.Contains(out.Err.Error(), prompts[i]) {
				t.Errorf("outcome %d: expected failure for %s, got %+v", i, prompts[i], out)
			}
			continue
		}
		if out.Result.RecordID != prompts[i] {
			t.Errorf("outcome %d: expected %s, got %+v", i, prompts[i], out)
		}
	}
	if res.Failed() != 7 || res.Succeeded() != 13 {
		t.Errorf("unexpected counts succeeded=%d failed=%d", res.Succeeded(), res.Failed())
	}
}

func TestBatchRunner_Empty(t *testing.T) {
	r := NewBatchRunner(&echoExecutor{}, nil)
	res := r.Run(context.Background(), nil, 4)
	if len(res.Outcomes) != 0 {
		t.Errorf("expected empty result, got %d", len(res.Outcomes))
	}
}

func TestBatchRunner_Workers(t *testing.T) {
	r := NewBatchRunner(&echoExecutor{}, nil)
	r.maxProcs = func() int { return 4 }

	tests := []struct {
		concurrency, n, want int
	}{
		{8, 100, 4},
		{2, 100, 2},
		{8, 3, 3},
		{0, 10, 1},
		{-5, 10, 1},
		{4, 0, 0},
	}
	for _, tt := range tests {
		if got := r.Workers(tt.concurrency, tt.n); got != tt.want {
			t.Errorf("Workers(%d, %d) = %d, want %d", tt.concurrency, tt.n, got, tt.want)
		}
	}
}

func TestBatchRunner_TagsWorkers(t *testing.T) {
	exec := &echoExecutor{}
	r := NewBatchRunner(exec, nil)
	r.maxProcs = func() int { return 3 }

	r.Run(context.Background(), items("a", "b", "c", "d", "e", "f"), 3)
	for id := range exec.workers {
		if id < 1 || id > 3 {
			t.Errorf("unexpected worker id %d", id)
		}
	}
}

func TestBatchRunner_UniqueStagingPaths(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{})
	r := NewBatchRunner(h.orch, nil)
	r.maxProcs = func() int { return 8 }

	prompts := make([]string, 50)
	for i := range prompts {
		prompts[i] = "the same prompt"
	}

	res := r.Run(context.Background(), items(prompts...), 8)
	if res.Succeeded() != 50 {
		t.Fatalf("expected 50 successes, got %d", res.Succeeded())
	}

	seen := make(map[string]bool)
	for _, p := range h.stager.Staged() {
		if seen[p] {
			t.Fatalf("staging path reused: %s", p)
		}
		seen[p] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct paths, got %d", len(seen))
	}
	if n := h.stagingFiles(t); n != 0 {
		t.Errorf("expected staging dir empty, found %d", n)
	}
}

func TestBatchRunner_FailureDoesNotCancelSiblings(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{})
	h.records.err = fmt.Errorf("down")
	r := NewBatchRunner(h.orch, nil)
	r.maxProcs = func() int { return 4 }

	res := r.Run(context.Background(), items("a", "b", "c", "d", "e"), 4)
	if res.Failed() != 5 {
		t.Errorf("expected every item to run and fail, got %d failures", res.Failed())
	}
	if h.uploader.Calls() != 5 {
		t.Errorf("expected 5 uploads, got %d", h.uploader.Calls())
	}
}
