package gateway

import (
	"sync"
	"time"
)

// Token counts are estimated at roughly four characters per token; the
// totals drive the cost readout, not billing.
const charsPerToken = 4

const (
	usageWindow     = 24 * time.Hour
	usageMaxRecords = 100
)

// UsageRecord is one model call's accounting entry.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Model        string    `json:"model"`
	Operation    string    `json:"operation"`
}

// UsageTotals summarizes the rolling window.
type UsageTotals struct {
	Calls         int     `json:"calls"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost_usd"`
}

// UsageLog keeps a rolling window of usage records: entries older than
// 24h or beyond the last 100 are pruned on every update. Safe for
// concurrent use; the shared gateway records from every call site.
type UsageLog struct {
	mu      sync.Mutex
	records []UsageRecord
	// per-1K-token rates used for the estimate
	inputRate  float64
	outputRate float64
}

func NewUsageLog() *UsageLog {
	return &UsageLog{
		inputRate:  0.00015,
		outputRate: 0.0006,
	}
}

// EstimateTokens converts text length to an approximate token count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Record appends a usage entry and prunes the window.
func (u *UsageLog) Record(now time.Time, operation, model, prompt, response string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, UsageRecord{
		Timestamp:    now,
		InputTokens:  EstimateTokens(prompt),
		OutputTokens: EstimateTokens(response),
		Model:        model,
		Operation:    operation,
	})
	u.prune(now)
}

// Totals computes the running totals over the retained records.
func (u *UsageLog) Totals() UsageTotals {
	u.mu.Lock()
	defer u.mu.Unlock()
	t := UsageTotals{Calls: len(u.records)}
	for _, r := range u.records {
		t.InputTokens += r.InputTokens
		t.OutputTokens += r.OutputTokens
	}
	t.EstimatedCost = float64(t.InputTokens)/1000*u.inputRate +
		float64(t.OutputTokens)/1000*u.outputRate
	return t
}

// Records returns a copy of the retained entries, oldest first.
func (u *UsageLog) Records() []UsageRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]UsageRecord(nil), u.records...)
}

func (u *UsageLog) prune(now time.Time) {
	cutoff := now.Add(-usageWindow)
	i := 0
	for i < len(u.records) && u.records[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		u.records = append(u.records[:0], u.records[i:]...)
	}
	if len(u.records) > usageMaxRecords {
		u.records = append(u.records[:0], u.records[len(u.records)-usageMaxRecords:]...)
	}
}
