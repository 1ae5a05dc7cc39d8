// Package cost tracks LLM token usage and the derived monetary cost of a run.
package cost

import "strings"

// Rate is the price of a model in USD per 1K tokens
type Rate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost returns the USD cost of the given token counts at this rate
func (r Rate) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*r.InputPer1K + float64(outputTokens)/1000*r.OutputPer1K
}

// DefaultRate applies to models without a specific pricing entry
var DefaultRate = Rate{InputPer1K: 0.003, OutputPer1K: 0.015}

// pricing is matched in order against the lower-cased model ID
var pricing = []struct {
	markers []string
	rate    Rate
}{
	{markers: []string{"claude-3-5-sonnet", "claude-3.5-sonnet"}, rate: Rate{InputPer1K: 0.003, OutputPer1K: 0.015}},
	{markers: []string{"claude-3-sonnet"}, rate: Rate{InputPer1K: 0.003, OutputPer1K: 0.015}},
	{markers: []string{"claude-3-haiku"}, rate: Rate{InputPer1K: 0.00125, OutputPer1K: 0.00625}},
	{markers: []string{"claude-3-opus"}, rate: Rate{InputPer1K: 0.015, OutputPer1K: 0.075}},
}

// RateFor returns the pricing for a model ID, falling back to DefaultRate
func RateFor(model string) Rate {
	model = strings.ToLower(model)
	for _, entry := range pricing {
		for _, marker := range entry.markers {
			if strings.Contains(model, marker) {
				return entry.rate
			}
		}
	}
	return DefaultRate
}
