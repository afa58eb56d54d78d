package advisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrosense/agrosense/pkg/adapter"
	"github.com/agrosense/agrosense/pkg/catalog"
	"github.com/agrosense/agrosense/pkg/retrieval"
	"github.com/agrosense/agrosense/pkg/scoring"
)

// node identifies one state of the fixed turn graph. The graph has exactly
// one branch: after extraction, either ask for more information or run the
// recommendation path to completion.
type node int

const (
	nodeExtractParams node = iota
	nodeAskForMoreInfo
	nodeRecommendCrops
	nodeRetrieveReferences
	nodeComposeAnswer
)

func (n node) String() string {
	switch n {
	case nodeExtractParams:
		return "extract_params"
	case nodeAskForMoreInfo:
		return "ask_for_more_info"
	case nodeRecommendCrops:
		return "recommend_crops"
	case nodeRetrieveReferences:
		return "retrieve_references"
	case nodeComposeAnswer:
		return "compose_answer"
	default:
		return "unknown"
	}
}

// errorAnswerFmt is the single user-visible shape for a failed turn.
const errorAnswerFmt = "Sorry, something went wrong while processing your request: %v"

// Options configures an Advisor. NLU, NLG, and Catalog are required; the
// retriever is optional and, when absent, the reference step is skipped.
type Options struct {
	NLU      adapter.Adapter
	NLUModel string

	NLG      adapter.Adapter
	NLGModel string

	Retriever  retrieval.Retriever
	Catalog    *catalog.Catalog
	TopK       int
	RetrievalK int

	// ExtraRefusalPhrases extends the built-in refusal set with additional
	// literal substrings, e.g. for further languages.
	ExtraRefusalPhrases []string

	Logger *zap.Logger
}

// Advisor drives the turn graph. It holds no conversation state of its own;
// each Advance call receives the prior parameters and returns a new state.
type Advisor struct {
	extractor  extractor
	nlg        adapter.Adapter
	nlgModel   string
	retriever  retrieval.Retriever
	catalog    *catalog.Catalog
	topK       int
	retrievalK int
	logger     *zap.Logger
}

// New validates the options and builds an Advisor. A missing catalog is fatal
// here on purpose: the advisor must not serve turns without one.
func New(opts Options) (*Advisor, error) {
	if opts.NLU == nil {
		return nil, fmt.Errorf("advisor: NLU adapter is required")
	}
	if opts.NLG == nil {
		return nil, fmt.Errorf("advisor: NLG adapter is required")
	}
	if opts.Catalog == nil || opts.Catalog.Len() == 0 {
		return nil, fmt.Errorf("advisor: crop catalog is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = scoring.DefaultTopK
	}
	retrievalK := opts.RetrievalK
	if retrievalK <= 0 {
		retrievalK = 5
	}

	return &Advisor{
		extractor: extractor{
			nlu:      opts.NLU,
			model:    opts.NLUModel,
			refusals: newRefusalDetector(opts.ExtraRefusalPhrases),
			logger:   logger,
		},
		nlg:        opts.NLG,
		nlgModel:   opts.NLGModel,
		retriever:  opts.Retriever,
		catalog:    opts.Catalog,
		topK:       topK,
		retrievalK: retrievalK,
		logger:     logger,
	}, nil
}

// Advance executes one turn: merge extracted parameters into the prior state,
// then either ask a clarification question or score, retrieve, and compose a
// recommendation. It always returns a state with a non-empty Answer; failures
// downstream of extraction become an error-style answer while the merged
// parameters are kept, so the next turn builds on them.
func (a *Advisor) Advance(ctx context.Context, query string, prior Parameters) ConversationState {
	state := ConversationState{Query: query, Parameters: prior}

	current := nodeExtractParams
	for {
		a.logger.Debug("turn node", zap.Stringer("node", current))

		switch current {
		case nodeExtractParams:
			merged, missing, needsMoreInfo := a.extractor.merge(ctx, query, prior)
			state.Parameters = merged
			state.MissingFields = missing
			state.NeedsMoreInfo = needsMoreInfo
			if needsMoreInfo {
				current = nodeAskForMoreInfo
			} else {
				current = nodeRecommendCrops
			}

		case nodeAskForMoreInfo:
			art, err := a.nlg.Generate(ctx, a.nlgModel, buildClarificationPrompt(query, state.MissingFields))
			if err != nil {
				return a.failTurn(state, current, err)
			}
			state.Answer = art.Content
			return state

		case nodeRecommendCrops:
			state.CandidateResults = scoring.Rank(state.Parameters.KnownValues(), a.catalog, a.topK)
			current = nodeRetrieveReferences

		case nodeRetrieveReferences:
			if a.retriever == nil {
				a.logger.Debug("no retriever configured, skipping references")
				current = nodeComposeAnswer
				continue
			}
			snippets, err := a.retriever.Retrieve(ctx, query, a.retrievalK)
			if err != nil {
				return a.failTurn(state, current, err)
			}
			state.ReferenceSnippets = snippets
			current = nodeComposeAnswer

		case nodeComposeAnswer:
			prompt := buildAnswerPrompt(query, state.Parameters, state.CandidateResults, state.ReferenceSnippets)
			art, err := a.nlg.Generate(ctx, a.nlgModel, prompt)
			if err != nil {
				return a.failTurn(state, current, err)
			}
			state.Answer = art.Content
			return state
		}
	}
}

// failTurn converts a node failure into the fixed error answer. The merged
// parameters stay in the returned state; candidates and snippets are cleared
// so the caller never sees partial recommendation output.
func (a *Advisor) failTurn(state ConversationState, failed node, err error) ConversationState {
	a.logger.Error("turn failed",
		zap.Stringer("node", failed),
		zap.Bool("transient", adapter.IsTransient(err)),
		zap.Error(err))

	state.CandidateResults = nil
	state.ReferenceSnippets = nil
	state.Answer = fmt.Sprintf(errorAnswerFmt, err)
	return state
}
