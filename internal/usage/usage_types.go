package usage

// Data is the document persisted to usage.json.
type Data struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// AggregatedStats holds token counters broken down by dimension.
type AggregatedStats struct {
	Total     TokenCounts            `json:"total"`
	ByBackend map[string]TokenCounts `json:"by_backend"`
	ByModel   map[string]TokenCounts `json:"by_model"`
	ByKind    map[string]TokenCounts `json:"by_kind"` // weed, pest, disease, soil
}

// TokenCounts holds input/output sums and the number of calls.
type TokenCounts struct {
	Calls  int64 `json:"calls"`
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Calls++
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}
