package usecase

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// Labels offered to the zero-shot classifier.
const (
	LabelPersonalFact = "personal_fact"
	LabelMetaComment  = "meta_comment"
	LabelAction       = "action"
	LabelQuestion     = "question"
)

var classifierLabels = []string{LabelPersonalFact, LabelMetaComment, LabelAction, LabelQuestion}

// AcceptancePolicy decides whether an extracted candidate may be persisted.
type AcceptancePolicy struct {
	minLength   int
	generic     []*regexp.Regexp
	blockedTags map[string]struct{}
	classifier  interfaces.Classifier // nil disables the classifier check
}

func NewAcceptancePolicy(cfg config.ExtractionConfig, classifier interfaces.Classifier) (*AcceptancePolicy, error) {
	p := &AcceptancePolicy{
		minLength:   cfg.MinContentLength,
		blockedTags: make(map[string]struct{}, len(cfg.BlockedTags)),
	}

	for _, pattern := range cfg.GenericPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid generic pattern", goerr.V("pattern", pattern))
		}
		p.generic = append(p.generic, re)
	}
	for _, tag := range cfg.BlockedTags {
		p.blockedTags[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	if cfg.UseClassifier {
		p.classifier = classifier
	}

	return p, nil
}

// Evaluate returns true when c passes every check, or false with the reason
// of the first failed check. A classifier error accepts the candidate.
func (p *AcceptancePolicy) Evaluate(ctx context.Context, c model.MemoryCandidate) (bool, model.RejectReason) {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return false, model.RejectEmptyContent
	}
	if utf8.RuneCountInString(content) < p.minLength {
		return false, model.RejectTooShort
	}
	for _, re := range p.generic {
		if re.MatchString(content) {
			return false, model.RejectGeneric
		}
	}
	for _, tag := range c.Tags {
		if _, blocked := p.blockedTags[strings.ToLower(strings.TrimSpace(tag))]; blocked {
			return false, model.RejectBlockedTag
		}
	}

	if p.classifier != nil {
		labels, err := p.classifier.Classify(ctx, content, classifierLabels)
		if err != nil {
			logging.From(ctx).Warn("classifier failed, accepting candidate", "error", err)
			return true, ""
		}
		if len(labels) > 0 && labels[0] != LabelPersonalFact {
			return false, model.RejectNotPersonal
		}
	}

	return true, ""
}
