package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/nvejas/citeline/agent/contract"
	routerx "github.com/nvejas/citeline/agent/router"
)

// ClassifierDecider routes with a model-predicted label while keeping the
// lexical heuristic as both the diagnostics source and the fallback. The
// heuristic scores are computed on every call so the decision surface stays
// inspectable regardless of which path produced the verdict.
type ClassifierDecider struct {
	classifier contractx.Classifier
	heuristic  *routerx.Router
}

var _ routerx.Decider = (*ClassifierDecider)(nil)

func NewClassifierDecider(classifier contractx.Classifier, heuristic *routerx.Router) (*ClassifierDecider, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if heuristic == nil {
		return nil, errors.New("heuristic router is required")
	}
	return &ClassifierDecider{classifier: classifier, heuristic: heuristic}, nil
}

// Decide asks the classifier for a label and falls back to the heuristic
// verdict when the classifier is unavailable or answers nonsense. A blank
// message never reaches the model.
func (d *ClassifierDecider) Decide(ctx context.Context, message string) (bool, contractx.RouteScores) {
	routed, scores := d.heuristic.Decide(ctx, message)

	if strings.TrimSpace(message) == "" {
		return routed, scores
	}

	label, err := d.classifier.Classify(ctx, message)
	if err != nil {
		log.Warn().Err(err).Msg("classifier unavailable, using heuristic route")
		return routed, scores
	}

	return label == string(contractx.ReplyKindRag), scores
}
