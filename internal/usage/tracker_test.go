package usage

import (
	"sync"
	"testing"
)

func TestTracker_AccumulatesCalls(t *testing.T) {
	tr := NewTracker("test-model", DefaultCostPerMillion)
	usages := []int{120, 80, 300}
	for _, u := range usages {
		tr.Record(u)
	}

	stats := tr.Stats()
	if stats.TotalAPICalls != 3 {
		t.Errorf("TotalAPICalls = %d, want 3", stats.TotalAPICalls)
	}
	if stats.TotalTokensUsed != 500 {
		t.Errorf("TotalTokensUsed = %d, want 500", stats.TotalTokensUsed)
	}
	if stats.Model != "test-model" {
		t.Errorf("Model = %q", stats.Model)
	}
	if want := 500.0 / 1_000_000 * 9.0; stats.EstimatedCostUSD != want {
		t.Errorf("EstimatedCostUSD = %v, want %v", stats.EstimatedCostUSD, want)
	}
}

func TestTracker_EmptySnapshot(t *testing.T) {
	stats := NewTracker("m", 3).Stats()
	if stats.TotalAPICalls != 0 || stats.TotalTokensUsed != 0 || stats.EstimatedCostUSD != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestTracker_NegativeTokensCountCallOnly(t *testing.T) {
	tr := NewTracker("m", DefaultCostPerMillion)
	tr.Record(-5)
	stats := tr.Stats()
	if stats.TotalTokensUsed != 0 || stats.TotalAPICalls != 1 {
		t.Errorf("got %+v", stats)
	}
}

func TestTracker_ConcurrentRecordLosesNothing(t *testing.T) {
	tr := NewTracker("m", DefaultCostPerMillion)

	const workers, perWorker = 32, 250
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tr.Record(3)
			}
		}()
	}
	wg.Wait()

	stats := tr.Stats()
	if stats.TotalAPICalls != workers*perWorker {
		t.Errorf("TotalAPICalls = %d, want %d", stats.TotalAPICalls, workers*perWorker)
	}
	if stats.TotalTokensUsed != 3*workers*perWorker {
		t.Errorf("TotalTokensUsed = %d, want %d", stats.TotalTokensUsed, 3*workers*perWorker)
	}
}

func TestEstimateCost_Deterministic(t *testing.T) {
	if got := EstimateCost(2_000_000, 9.0); got != 18.0 {
		t.Errorf("EstimateCost = %v, want 18", got)
	}
	if EstimateCost(12345, 9.0) != EstimateCost(12345, 9.0) {
		t.Error("EstimateCost must be deterministic")
	}
}
