package router

import (
	"context"
	"regexp"
	"strings"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// Decider picks the reply path for one user message. Implementations must
// always return a decision together with its diagnostic scores; a decider
// that can fail internally has to fall back rather than error.
type Decider interface {
	Decide(ctx context.Context, message string) (bool, contractx.RouteScores)
}

// Config carries the signal weights and the routing threshold. These are
// deployment tuning knobs loaded from the environment, not constants.
type Config struct {
	QuestionWeight    float64 `envconfig:"QUESTION_WEIGHT" split_words:"true" default:"1.0"`
	TriggerWeight     float64 `envconfig:"TRIGGER_WEIGHT" split_words:"true" default:"2.0"`
	SourceWeight      float64 `envconfig:"SOURCE_WEIGHT" split_words:"true" default:"0.8"`
	SpecificityWeight float64 `envconfig:"SPECIFICITY_WEIGHT" split_words:"true" default:"0.7"`
	Threshold         float64 `envconfig:"THRESHOLD" split_words:"true" default:"1.5"`
}

// DefaultConfig mirrors the envconfig defaults for callers that construct
// the router by hand.
func DefaultConfig() Config {
	return Config{
		QuestionWeight:    1.0,
		TriggerWeight:     2.0,
		SourceWeight:      0.8,
		SpecificityWeight: 0.7,
		Threshold:         1.5,
	}
}

var (
	questionWordRe = regexp.MustCompile(`(?i)\b(who|what|when|where|why|how|which)\b`)
	triggerTokenRe = regexp.MustCompile(`(?i)\b(search|lookup|cite|sources|verify):`)
	sourceWordRe   = regexp.MustCompile(`(?i)\b(source|cite|reference|evidence|stats|data)\b`)
	specificityRe  = regexp.MustCompile(`(?i)\b\d{4}\b|\d+%|\b(exactly|precisely)\b`)
)

// Router scores a message with additive lexical signals and routes it to
// the retrieval pipeline when the total clears the threshold.
type Router struct {
	cfg Config
}

var _ Decider = (*Router)(nil)

// New builds a Router. A zero Config falls back to the defaults, and a
// non-positive threshold is replaced by the default threshold so a
// misconfigured router cannot route every message.
func New(cfg Config) *Router {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Router{cfg: cfg}
}

// Decide reports whether message should take the retrieval path and the
// per-signal contributions behind the call. A matched signal contributes
// its configured weight exactly once, however often it occurs. Decide is a
// pure function of the message and the weights; ctx exists for Decider
// parity and is never used.
func (r *Router) Decide(_ context.Context, message string) (bool, contractx.RouteScores) {
	var scores contractx.RouteScores

	msg := strings.TrimSpace(message)
	if msg == "" {
		return false, scores
	}

	if questionWordRe.MatchString(msg) {
		scores.QuestionWord = r.cfg.QuestionWeight
	}
	if triggerTokenRe.MatchString(msg) {
		scores.Trigger = r.cfg.TriggerWeight
	}
	if sourceWordRe.MatchString(msg) {
		scores.SourceWord = r.cfg.SourceWeight
	}
	if specificityRe.MatchString(msg) {
		scores.Specificity = r.cfg.SpecificityWeight
	}

	return scores.Sum() >= r.cfg.Threshold, scores
}
