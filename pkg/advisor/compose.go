package advisor

import (
	"fmt"
	"strings"

	"github.com/agrosense/agrosense/pkg/catalog"
	"github.com/agrosense/agrosense/pkg/retrieval"
	"github.com/agrosense/agrosense/pkg/scoring"
)

// buildClarificationPrompt asks the model for a short follow-up question
// covering only the still-missing fields.
func buildClarificationPrompt(query string, missing []catalog.Key) string {
	labels := make([]string, 0, len(missing))
	for _, key := range missing {
		labels = append(labels, catalog.Label(key))
	}

	var b strings.Builder
	b.WriteString("You are AgroSense, a friendly agronomy assistant.\n\n")
	b.WriteString("The farmer said:\n")
	b.WriteString(query)
	b.WriteString("\n\nWe still need these details to give a good crop recommendation:\n")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n\nThe farmer may be speaking in Hindi, Hinglish, or English.\n")
	b.WriteString("- If their message is mostly Hindi/Hinglish, reply in simple Hinglish.\n")
	b.WriteString("- Otherwise reply in simple English.\n\n")
	b.WriteString("In 1-2 short sentences, ask the farmer to provide ONLY these missing values.\n")
	b.WriteString("Use full names like \"nitrogen, phosphorus, potassium\" instead of letters.\n")
	b.WriteString("Keep it brief and conversational.")
	return b.String()
}

// buildAnswerPrompt combines the numeric results and retrieved references
// into one prompt for the final reply.
func buildAnswerPrompt(query string, params Parameters, candidates []scoring.Result, snippets []retrieval.Snippet) string {
	var b strings.Builder
	b.WriteString("You are AgroSense, a friendly agronomy assistant talking to a farmer.\n\n")
	b.WriteString("Farmer's latest message:\n")
	b.WriteString(query)
	b.WriteString("\n\nKnown field conditions (from all messages so far):\n")
	b.WriteString(formatKnownParameters(params))
	b.WriteString("\n\nTop crop candidates with numeric suitability (lower score = better):\n")
	b.WriteString(formatCandidates(candidates))
	b.WriteString("\n\nRelevant agronomy notes (summaries of documents):\n")
	b.WriteString(formatSnippets(snippets))
	b.WriteString("\n\nWrite a SHORT, conversational answer:\n")
	b.WriteString("- Start with 1-2 best crops and clearly say why they fit.\n")
	b.WriteString("- Mention 2-3 practical tips (soil, water, nutrients) in simple words.\n")
	b.WriteString("- If some important info is still missing, briefly say what they should measure next.\n\n")
	b.WriteString("Use at most 2-3 short paragraphs or 1 paragraph + a few bullet points.\n")
	b.WriteString("Avoid long essays and heavy technical jargon.")
	return b.String()
}

func formatKnownParameters(params Parameters) string {
	var lines []string
	for _, key := range catalog.Keys {
		if v := params.Value(key); v != nil {
			lines = append(lines, fmt.Sprintf("- %s: %g", catalog.Label(key), *v))
		}
	}
	if len(lines) == 0 {
		return "(none provided)"
	}
	return strings.Join(lines, "\n")
}

func formatCandidates(candidates []scoring.Result) string {
	if len(candidates) == 0 {
		return "(no candidates scored)"
	}
	var lines []string
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s (score = %.2f)", i+1, c.Name, c.Score))
	}
	return strings.Join(lines, "\n")
}

func formatSnippets(snippets []retrieval.Snippet) string {
	if len(snippets) == 0 {
		return "(no reference notes available)"
	}
	var lines []string
	for _, s := range snippets {
		source := s.Source
		if s.Topic != "" {
			source = fmt.Sprintf("%s, topic: %s", source, s.Topic)
		}
		lines = append(lines, fmt.Sprintf("[%s]\n%s", source, s.Content))
	}
	return strings.Join(lines, "\n\n")
}
