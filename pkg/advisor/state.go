// Package advisor implements the multi-turn crop advisory core: merging
// extracted field parameters across turns, deciding whether to ask for more
// information, scoring candidate crops, and composing the reply. One call to
// Advance handles exactly one conversational turn.
package advisor

import (
	"github.com/agrosense/agrosense/pkg/catalog"
	"github.com/agrosense/agrosense/pkg/retrieval"
	"github.com/agrosense/agrosense/pkg/scoring"
)

// Parameters holds the environmental values known so far. A nil field is
// unknown. The key set is fixed; values only ever move from unknown to known.
type Parameters struct {
	N           *float64 `json:"n"`
	P           *float64 `json:"p"`
	K           *float64 `json:"k"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PH          *float64 `json:"ph"`
	Rainfall    *float64 `json:"rainfall"`
}

// Value returns the pointer for a parameter key.
func (p Parameters) Value(key catalog.Key) *float64 {
	switch key {
	case catalog.KeyN:
		return p.N
	case catalog.KeyP:
		return p.P
	case catalog.KeyK:
		return p.K
	case catalog.KeyTemperature:
		return p.Temperature
	case catalog.KeyHumidity:
		return p.Humidity
	case catalog.KeyPH:
		return p.PH
	case catalog.KeyRainfall:
		return p.Rainfall
	default:
		return nil
	}
}

func (p *Parameters) set(key catalog.Key, v *float64) {
	switch key {
	case catalog.KeyN:
		p.N = v
	case catalog.KeyP:
		p.P = v
	case catalog.KeyK:
		p.K = v
	case catalog.KeyTemperature:
		p.Temperature = v
	case catalog.KeyHumidity:
		p.Humidity = v
	case catalog.KeyPH:
		p.PH = v
	case catalog.KeyRainfall:
		p.Rainfall = v
	}
}

// Merge combines a fresh extraction guess with prior values. A new non-nil
// value overrides the prior one; a nil guess keeps what is already known, so
// knowledge is monotonic across turns.
func (p Parameters) Merge(guess Parameters) Parameters {
	merged := p
	for _, key := range catalog.Keys {
		if v := guess.Value(key); v != nil {
			merged.set(key, v)
		}
	}
	return merged
}

// Missing returns the required keys that are still unknown, in canonical
// order.
func (p Parameters) Missing() []catalog.Key {
	var missing []catalog.Key
	for _, key := range catalog.RequiredKeys {
		if p.Value(key) == nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// KnownValues returns the known keys and their values. Unknown keys are
// absent, never defaulted.
func (p Parameters) KnownValues() map[catalog.Key]float64 {
	known := make(map[catalog.Key]float64)
	for _, key := range catalog.Keys {
		if v := p.Value(key); v != nil {
			known[key] = *v
		}
	}
	return known
}

// ConversationState is the full result of one turn. The caller keeps
// Parameters between turns and passes them back as the prior state; the
// advisor never retains a reference.
type ConversationState struct {
	Query             string              `json:"query"`
	Parameters        Parameters          `json:"parameters"`
	MissingFields     []catalog.Key       `json:"missing_fields,omitempty"`
	NeedsMoreInfo     bool                `json:"needs_more_info"`
	CandidateResults  []scoring.Result    `json:"candidate_results,omitempty"`
	ReferenceSnippets []retrieval.Snippet `json:"reference_snippets,omitempty"`
	Answer            string              `json:"answer"`
}
