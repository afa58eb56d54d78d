package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agrosense/agrosense/pkg/adapter"
	"github.com/agrosense/agrosense/pkg/catalog"
)

// extractionPromptFmt instructs the NLU model to emit a single JSON object.
// The qualitative-to-numeric mappings are fixed; they must not drift, since
// merged values persist across turns.
const extractionPromptFmt = `You are an expert agronomy assistant. Your ONLY job is to read the user's text
and extract farming environmental parameters into a JSON object.

USER MESSAGE (may be Hindi, Hinglish, or English, in Devanagari or Latin script):
%s

INTERPRETATION RULES:
- The farmer may mix Hindi and English (e.g., "mere khet me nitrogen kam hai", "rainfall high hai").
- Understand words like: kam = low, zyada = high, medium = medium, normal = medium.
- Understand phrases like "pani zyada padta hai" -> high rainfall, "garam ilaaka" -> warm temperature.
- You may see some text in Urdu-like script as well; ignore the script and focus on meaning.

OUTPUT RULES:
- Respond ONLY with a JSON object, no extra text, comments, or explanations.
- If numeric values are explicitly mentioned, use them.
  - "temperature 30", "30 degree", "30C" -> temperature = 30
  - "pH 6.5", "ph 6 ke aas paas" -> ph = 6
- If vague words like "low / medium / high" (or Hindi equivalents) appear, convert using THESE FIXED MAPPINGS:

  NITROGEN (N):
    low / kam = 30
    medium / normal = 60
    high / zyada = 90

  PHOSPHORUS (P):
    low / kam = 30
    medium / normal = 50
    high / zyada = 70

  POTASSIUM (K):
    low / kam = 20
    medium / normal = 40
    high / zyada = 80

- For temperature, humidity, pH, rainfall:
    - Extract numeric values if present (e.g., "temp 30", "40 degree") -> temperature=30 or 40.
    - If vague terms appear, use:
        temperature: thanda/cool=20, garam/warm=30, bahut garam/very hot=35
        rainfall: kam barish=80, normal barish=150, zyada barish/bohot barish=220
        humidity: kam=40, medium=60, zyada=80
    - pH has no vague mapping: only explicit numeric mentions count, otherwise null.
    - If not mentioned at all, set to null.

RETURN JSON WITH EXACT KEYS:
{
    "n": ...,
    "p": ...,
    "k": ...,
    "temperature": ...,
    "humidity": ...,
    "ph": ...,
    "rainfall": ...
}`

// extractor is the parameter merge engine: it turns one raw query plus prior
// knowledge into the merged parameter set and the ask-or-recommend decision.
type extractor struct {
	nlu      adapter.Adapter
	model    string
	refusals refusalDetector
	logger   *zap.Logger
}

// merge runs extraction for one turn. It never returns an error: an NLU
// failure of any kind degrades to "nothing extracted this turn" and the prior
// values carry forward untouched.
func (e *extractor) merge(ctx context.Context, query string, prior Parameters) (Parameters, []catalog.Key, bool) {
	guess := e.extract(ctx, query)
	merged := prior.Merge(guess)

	missing := merged.Missing()
	needsMoreInfo := len(missing) > 0

	// A refusal means the farmer cannot supply more data: stop asking and
	// recommend with whatever is known.
	if e.refusals.Detect(query) {
		missing = nil
		needsMoreInfo = false
	}

	return merged, missing, needsMoreInfo
}

// extract calls the NLU model and parses its JSON reply. Failures degrade to
// the all-unknown guess.
func (e *extractor) extract(ctx context.Context, query string) Parameters {
	prompt := fmt.Sprintf(extractionPromptFmt, query)

	art, err := e.nlu.Generate(ctx, e.model, prompt)
	if err != nil {
		e.logger.Warn("parameter extraction call failed, treating turn as empty",
			zap.String("adapter", e.nlu.Name()),
			zap.String("model", e.model),
			zap.Bool("transient", adapter.IsTransient(err)),
			zap.Error(err))
		return Parameters{}
	}

	guess, err := parseExtraction(art.Content)
	if err != nil {
		e.logger.Warn("parameter extraction returned unparseable output",
			zap.String("adapter", e.nlu.Name()),
			zap.Error(err))
		return Parameters{}
	}
	return guess
}

// parseExtraction decodes the model's reply into a Parameters guess. Models
// sometimes wrap JSON in code fences or prose; the first balanced object in
// the text is what gets decoded.
func parseExtraction(raw string) (Parameters, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return Parameters{}, fmt.Errorf("no JSON object in extraction output")
	}

	var guess Parameters
	if err := json.Unmarshal([]byte(payload), &guess); err != nil {
		return Parameters{}, fmt.Errorf("decode extraction output: %w", err)
	}
	return guess, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
