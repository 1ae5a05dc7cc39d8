package cost

import (
	"math"
	"sync"
)

// Ledger accumulates token usage and cost across concurrent LLM calls.
// A Ledger is safe for concurrent use and must be shared by pointer.
type Ledger struct {
	mu           sync.Mutex
	model        string
	inputTokens  int64
	outputTokens int64
	totalCost    float64
	requests     int
}

// Report is a point-in-time summary of a Ledger
type Report struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	Requests     int     `json:"total_requests"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
}

// NewLedger creates a ledger whose cost breakdown is priced for the given model
func NewLedger(model string) *Ledger {
	return &Ledger{model: model}
}

// Record adds one completed call and returns its cost
func (l *Ledger) Record(model string, inputTokens, outputTokens int64) float64 {
	callCost := RateFor(model).Cost(inputTokens, outputTokens)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.inputTokens += inputTokens
	l.outputTokens += outputTokens
	l.totalCost += callCost
	l.requests++

	return callCost
}

// TotalCost returns the running cost
func (l *Ledger) TotalCost() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCost
}

// Report returns the accumulated usage. Costs are rounded to 4 decimals.
func (l *Ledger) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()

	rate := RateFor(l.model)
	return Report{
		InputTokens:  l.inputTokens,
		OutputTokens: l.outputTokens,
		TotalTokens:  l.inputTokens + l.outputTokens,
		TotalCost:    round4(l.totalCost),
		Requests:     l.requests,
		InputCost:    round4(rate.Cost(l.inputTokens, 0)),
		OutputCost:   round4(rate.Cost(0, l.outputTokens)),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
