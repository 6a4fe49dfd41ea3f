package meter

import "fmt"

// Rates are the four published figures. Each windowed sum is scaled up to a
// per-60-seconds rate so the three horizons are directly comparable.
type Rates struct {
	Rate10 uint64 `json:"rate_10s"`
	Rate30 uint64 `json:"rate_30s"`
	Rate60 uint64 `json:"rate_60s"`
	Total  uint64 `json:"total"`
}

// Rates normalizes the snapshot. Integer division matches the original
// status format, truncation included: sum10=7 publishes as 42, not 42.0.
func (s Snapshot) Rates() Rates {
	return Rates{
		Rate10: s.Sum10 * Length / shortWindow,
		Rate30: s.Sum30 * Length / mediumWindow,
		Rate60: s.Sum60,
		Total:  s.Total,
	}
}

// Line renders the canonical status line: four space-separated integers and
// a trailing newline, e.g. "42 138 512 918273\n".
func (s Snapshot) Line() string {
	r := s.Rates()
	return fmt.Sprintf("%d %d %d %d\n", r.Rate10, r.Rate30, r.Rate60, r.Total)
}
