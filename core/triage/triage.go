// Package triage classifies conversations as low or high complexity so the
// Workers AI adapter can pick an appropriately sized model when the caller
// did not constrain the choice. Verdicts are memoized by content hash, and
// every failure path degrades to the conservative VerdictHigh: the gateway
// would rather overprovision a model than under-serve a complex request.
package triage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/cache"
	"github.com/modelmux/modelmux/providers/observability"
)

// Verdict is the outcome of a complexity classification.
type Verdict string

const (
	VerdictLow  Verdict = "low"
	VerdictHigh Verdict = "high"
)

// cacheKeyPrefix namespaces triage entries in the shared store.
const cacheKeyPrefix = "complexity:"

// classifierPrompt is the fixed instruction sent to the triage model. The
// conversation under classification is appended after it.
const classifierPrompt = `Judge the complexity of the conversation below. Answer with exactly one word: "low" or "high".
Answer "low" for greetings, small talk and simple factual questions.
Answer "high" for coding, math, analysis, multi-step reasoning and creative writing.

Conversation:
`

// Inferencer is the minimal inference capability triage needs.
// The Workers AI client satisfies it.
type Inferencer interface {
	Infer(ctx context.Context, model string, prompt string) (string, error)
}

// Classifier memoizes low/high verdicts in a cache.Store keyed by a hash of
// the conversation content. Classify never returns an error; the cache is a
// performance optimization and its failures are treated as misses.
type Classifier struct {
	inferencer Inferencer
	store      cache.Store
	model      string
	ttl        time.Duration
}

// NewClassifier builds a Classifier that runs verdicts on the given model and
// memoizes them in store for ttl. A nil store disables memoization.
func NewClassifier(inferencer Inferencer, store cache.Store, model string, ttl time.Duration) *Classifier {
	return &Classifier{
		inferencer: inferencer,
		store:      store,
		model:      model,
		ttl:        ttl,
	}
}

// Classify returns the complexity verdict for the conversation. On a cache
// hit the cached verdict is returned without any model call. On a miss, one
// inference runs and its verdict is stored before returning. Inference
// failure yields VerdictHigh without caching, so a transient outage cannot
// pin a fallback verdict for the full TTL.
func (c *Classifier) Classify(ctx context.Context, messages []ai.Message) Verdict {
	content := joinContents(messages)
	key := cacheKey(content)
	span := observability.SpanFromContext(ctx)

	if c.store != nil {
		cached, found, err := c.store.Get(ctx, key)
		if err == nil && found {
			verdict := verdictFromText(cached)
			recordVerdict(ctx, span, verdict, true)
			return verdict
		}
		// Errors count as misses.
	}

	response, err := c.inferencer.Infer(ctx, c.model, classifierPrompt+content)
	if err != nil {
		if span != nil {
			span.AddEvent(observability.EventTriageVerdict,
				observability.String(observability.AttrTriageVerdict, string(VerdictHigh)),
				observability.Error(err),
			)
		}
		return VerdictHigh
	}

	verdict := verdictFromText(response)
	if c.store != nil {
		// Best effort; a failed write only costs a future re-classification.
		_ = c.store.Put(ctx, key, string(verdict), c.ttl)
	}

	recordVerdict(ctx, span, verdict, false)
	return verdict
}

func recordVerdict(ctx context.Context, span observability.Span, verdict Verdict, cacheHit bool) {
	if span != nil {
		span.AddEvent(observability.EventTriageVerdict,
			observability.String(observability.AttrTriageVerdict, string(verdict)),
			observability.Bool(observability.AttrTriageCacheHit, cacheHit),
		)
	}
	if cacheHit {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Counter(observability.MetricTriageCacheHits).Add(ctx, 1)
		}
	}
}

// joinContents flattens the conversation to the newline-joined message texts.
func joinContents(messages []ai.Message) string {
	parts := make([]string, 0, len(messages))
	for _, message := range messages {
		parts = append(parts, message.Text())
	}
	return strings.Join(parts, "\n")
}

// cacheKey derives the memoization key from the content hash. The hash is
// stable across processes so verdicts survive restarts with a persistent
// store.
func cacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// verdictFromText interprets a model answer: any text containing "high"
// (case-insensitive) reads as VerdictHigh, everything else as VerdictLow.
func verdictFromText(text string) Verdict {
	if strings.Contains(strings.ToLower(text), string(VerdictHigh)) {
		return VerdictHigh
	}
	return VerdictLow
}
