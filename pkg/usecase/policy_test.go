package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/usecase"
)

func newPolicy(t *testing.T, classifier *stubClassifier) *usecase.AcceptancePolicy {
	t.Helper()
	cfg := config.DefaultChatConfig().Extraction
	if classifier != nil {
		cfg.UseClassifier = true
	}
	var c interfaces.Classifier
	if classifier != nil {
		c = classifier
	}
	p, err := usecase.NewAcceptancePolicy(cfg, c)
	gt.NoError(t, err).Required()
	return p
}

func TestAcceptancePolicy(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		candidate model.MemoryCandidate
		ok        bool
		reason    model.RejectReason
	}{
		{"personal fact", model.MemoryCandidate{Content: "Has a dog named Max", Tags: []string{"pet"}}, true, ""},
		{"too short", model.MemoryCandidate{Content: "Is happy"}, false, model.RejectTooShort},
		{"exactly minimum length", model.MemoryCandidate{Content: "Likes tea!"}, true, ""},
		{"empty", model.MemoryCandidate{Content: "   "}, false, model.RejectEmptyContent},
		{"meta analyzing", model.MemoryCandidate{Content: "Assistant is analyzing the request"}, false, model.RejectGeneric},
		{"meta conversation", model.MemoryCandidate{Content: "The Conversation was about food"}, false, model.RejectGeneric},
		{"meta this chat", model.MemoryCandidate{Content: "User started this chat today"}, false, model.RejectGeneric},
		{"blocked tag", model.MemoryCandidate{Content: "Wants to book a flight", Tags: []string{"travel", "Action"}}, false, model.RejectBlockedTag},
		{"blocked none tag", model.MemoryCandidate{Content: "Nothing new was shared", Tags: []string{"none"}}, false, model.RejectBlockedTag},
		{"multibyte counted as characters", model.MemoryCandidate{Content: "東京に住んでいます"}, false, model.RejectTooShort},
	}

	p := newPolicy(t, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := p.Evaluate(ctx, tc.candidate)
			gt.Value(t, ok).Equal(tc.ok)
			gt.Value(t, reason).Equal(tc.reason)
		})
	}

	t.Run("accepted content is long enough and not generic", func(t *testing.T) {
		generic := regexp.MustCompile(`(?i)\banalyz(ing|e|es)\b|\bthinking\b|\bthis chat\b|\bconversation\b|\bassistant\b`)
		inputs := []string{
			"", "short", "User happy", "Likes hiking in the Alps", "thinking about lunch plans",
			"My assistant at work is Bob", "Drives a red bicycle to work", "   padded    ",
		}
		for _, in := range inputs {
			ok, _ := p.Evaluate(ctx, model.MemoryCandidate{Content: in})
			if ok {
				gt.Bool(t, utf8.RuneCountInString(in) >= 10).True()
				gt.Bool(t, generic.MatchString(in)).False()
			}
		}
	})
}

func TestAcceptancePolicy_Classifier(t *testing.T) {
	ctx := context.Background()
	candidate := model.MemoryCandidate{Content: "Has a dog named Max"}

	t.Run("accepts personal fact", func(t *testing.T) {
		p := newPolicy(t, &stubClassifier{labels: []string{usecase.LabelPersonalFact, usecase.LabelQuestion}})
		ok, _ := p.Evaluate(ctx, candidate)
		gt.Bool(t, ok).True()
	})

	t.Run("rejects other top label", func(t *testing.T) {
		p := newPolicy(t, &stubClassifier{labels: []string{usecase.LabelMetaComment, usecase.LabelPersonalFact}})
		ok, reason := p.Evaluate(ctx, candidate)
		gt.Bool(t, ok).False()
		gt.Value(t, reason).Equal(model.RejectNotPersonal)
	})

	t.Run("fails open on classifier error", func(t *testing.T) {
		p := newPolicy(t, &stubClassifier{err: errors.New("unavailable")})
		ok, _ := p.Evaluate(ctx, candidate)
		gt.Bool(t, ok).True()
	})
}
