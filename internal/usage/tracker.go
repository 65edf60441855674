package usage

import (
	"sync"

	"github.com/ossi-voice/ossi/internal/model"
)

// DefaultCostPerMillion is the blended USD rate per million tokens.
const DefaultCostPerMillion = 9.0

// Tracker accumulates token and call counts for one orchestrator.
// It is safe for concurrent use.
type Tracker struct {
	mu             sync.Mutex
	model          string
	costPerMillion float64
	tokens         int64
	calls          int64
}

// NewTracker creates a tracker reporting under model at costPerMillion USD per million tokens.
func NewTracker(model string, costPerMillion float64) *Tracker {
	return &Tracker{model: model, costPerMillion: costPerMillion}
}

// Record adds tokensUsed and counts one API call. Negative token counts are treated as zero.
func (t *Tracker) Record(tokensUsed int) {
	if tokensUsed < 0 {
		tokensUsed = 0
	}
	t.mu.Lock()
	t.tokens += int64(tokensUsed)
	t.calls++
	t.mu.Unlock()
}

// Stats returns a consistent snapshot of the counters.
func (t *Tracker) Stats() model.UsageStats {
	t.mu.Lock()
	tokens, calls := t.tokens, t.calls
	t.mu.Unlock()

	return model.UsageStats{
		TotalTokensUsed:  tokens,
		TotalAPICalls:    calls,
		Model:            t.model,
		EstimatedCostUSD: EstimateCost(tokens, t.costPerMillion),
	}
}

// EstimateCost converts a token count into USD at ratePerMillion.
func EstimateCost(tokens int64, ratePerMillion float64) float64 {
	return float64(tokens) / 1_000_000 * ratePerMillion
}
