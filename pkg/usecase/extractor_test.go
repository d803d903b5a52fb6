package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
)

func TestParseMemoryDirectives(t *testing.T) {
	t.Run("strips a single directive", func(t *testing.T) {
		candidates, reply := usecase.ParseMemoryDirectives("Got it! [MEMORY: User likes pasta | food, preference, italian]")
		gt.Value(t, reply).Equal("Got it!")
		gt.Array(t, candidates).Length(1).Required()
		gt.Value(t, candidates[0]).Equal(model.MemoryCandidate{
			Content: "User likes pasta",
			Tags:    []string{"food", "preference", "italian"},
		})
	})

	t.Run("finds every directive", func(t *testing.T) {
		candidates, reply := usecase.ParseMemoryDirectives(
			"Nice to meet you, Carla's partner! [MEMORY: Girlfriend is named Carla | relationship, partner]  I'll remember that.\n[MEMORY:Lives in Porto|location]")
		gt.Array(t, candidates).Length(2).Required()
		gt.Value(t, candidates[0].Content).Equal("Girlfriend is named Carla")
		gt.Value(t, candidates[0].Tags).Equal([]string{"relationship", "partner"})
		gt.Value(t, candidates[1].Content).Equal("Lives in Porto")
		gt.Value(t, candidates[1].Tags).Equal([]string{"location"})
		gt.Value(t, reply).Equal("Nice to meet you, Carla's partner! I'll remember that.")
	})

	t.Run("no space is left before punctuation", func(t *testing.T) {
		candidates, reply := usecase.ParseMemoryDirectives("I'll remember that [MEMORY: User likes pasta | food]. Anything else [MEMORY: Cooks on Sundays | cooking] ?")
		gt.Array(t, candidates).Length(2)
		gt.Value(t, reply).Equal("I'll remember that. Anything else?")
	})

	t.Run("caps tags and drops empty ones", func(t *testing.T) {
		candidates, _ := usecase.ParseMemoryDirectives("[MEMORY: Plays the violin daily | music, , hobby, daily, instrument]")
		gt.Array(t, candidates).Length(1).Required()
		gt.Value(t, candidates[0].Tags).Equal([]string{"music", "hobby", "daily"})
	})

	t.Run("no directive leaves reply intact", func(t *testing.T) {
		candidates, reply := usecase.ParseMemoryDirectives("Hello! How can I help you today?")
		gt.Array(t, candidates).Length(0)
		gt.Value(t, reply).Equal("Hello! How can I help you today?")
	})

	t.Run("collapses blank lines left behind", func(t *testing.T) {
		_, reply := usecase.ParseMemoryDirectives("First line.\n\n[MEMORY: Works as a nurse | work]\n\n\nLast line.")
		gt.Value(t, reply).Equal("First line.\n\nLast line.")
	})

	t.Run("malformed directive without separator is left alone", func(t *testing.T) {
		candidates, reply := usecase.ParseMemoryDirectives("Sure [MEMORY: no separator here]")
		gt.Array(t, candidates).Length(0)
		gt.Value(t, reply).Equal("Sure [MEMORY: no separator here]")
	})
}

func TestParseSideChannelOutput(t *testing.T) {
	testCases := []struct {
		name string
		out  string
		ok   bool
		want model.MemoryCandidate
	}{
		{
			name: "fact with tags",
			out:  "Extract: Has a sister named Ana\nTags: family, sister",
			ok:   true,
			want: model.MemoryCandidate{Content: "Has a sister named Ana", Tags: []string{"family", "sister"}},
		},
		{
			name: "case and spacing tolerant",
			out:  "  extract:   Lives in Lisbon  \n  TAGS: location , city , home, extra ",
			ok:   true,
			want: model.MemoryCandidate{Content: "Lives in Lisbon", Tags: []string{"location", "city", "home"}},
		},
		{
			name: "fact without tags",
			out:  "Extract: Is allergic to peanuts",
			ok:   true,
			want: model.MemoryCandidate{Content: "Is allergic to peanuts", Tags: []string{}},
		},
		{name: "none", out: "Extract: NONE", ok: false},
		{name: "none with punctuation", out: "Extract: none.", ok: false},
		{name: "empty fact", out: "Extract:\nTags: a", ok: false},
		{name: "unrelated text", out: "I cannot help with that.", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := usecase.ParseSideChannelOutput(tc.out)
			gt.Value(t, ok).Equal(tc.ok)
			if tc.ok {
				gt.Value(t, got).Equal(tc.want)
			}
		})
	}
}

func TestSideChannelExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies the user message", func(t *testing.T) {
		completer := &stubCompleter{fn: func(prompt, system string) (string, error) {
			return "Extract: Girlfriend is named Carla\nTags: relationship, partner", nil
		}}
		x := usecase.NewSideChannelExtractor(completer)

		candidates, err := x.ExtractFromMessage(ctx, "My girlfriend is Carla")
		gt.NoError(t, err).Required()
		gt.Array(t, candidates).Length(1)
		gt.String(t, completer.prompts[0]).Contains("My girlfriend is Carla")
		gt.Value(t, x.Instructions()).Equal("")
	})

	t.Run("does not touch the reply", func(t *testing.T) {
		x := usecase.NewSideChannelExtractor(replyWith(""))
		candidates, reply := x.ExtractFromReply(ctx, "Hi [MEMORY: Likes cheese a lot | food]")
		gt.Array(t, candidates).Length(0)
		gt.Value(t, reply).Equal("Hi [MEMORY: Likes cheese a lot | food]")
	})

	t.Run("propagates completion errors", func(t *testing.T) {
		x := usecase.NewSideChannelExtractor(&stubCompleter{fn: func(string, string) (string, error) {
			return "", errors.New("timeout")
		}})
		_, err := x.ExtractFromMessage(ctx, "My girlfriend is Carla")
		gt.Value(t, err).NotNil()
	})
}

func TestNewMemoryExtractor(t *testing.T) {
	x, err := usecase.NewMemoryExtractor(model.ExtractionInline, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, x.Mode()).Equal(model.ExtractionInline)
	gt.String(t, x.Instructions()).Contains("[MEMORY:")

	x, err = usecase.NewMemoryExtractor(model.ExtractionSideChannel, replyWith(""))
	gt.NoError(t, err).Required()
	gt.Value(t, x.Mode()).Equal(model.ExtractionSideChannel)

	_, err = usecase.NewMemoryExtractor("bogus", nil)
	gt.Value(t, err).NotNil()
}
