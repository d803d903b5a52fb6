package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/service/provider"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/async"
)

func newChat(t *testing.T, repo interfaces.Repository, completer interfaces.Completer, embedder interfaces.Embedder, mutate ...func(*config.ChatConfig)) *usecase.ChatUseCase {
	t.Helper()
	cfg := config.DefaultChatConfig()
	for _, m := range mutate {
		m(cfg)
	}
	uc, err := usecase.NewChatUseCase(repo, cfg, completer, embedder, nil, async.Inline)
	gt.NoError(t, err).Required()
	return uc
}

// echoDirective replies with a directive built from the question.
func echoDirective(reply, fact, tags string) *stubCompleter {
	return &stubCompleter{fn: func(prompt, system string) (string, error) {
		return reply + " [MEMORY: " + fact + " | " + tags + "]", nil
	}}
}

func TestChat_MarkerStripping(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	uc := newChat(t, repo, replyWith("Got it! [MEMORY: User likes pasta | food, preference, italian]"), hashEmbedder())

	turn, err := uc.Chat(ctx, 1, "I love pasta")
	gt.NoError(t, err).Required()

	gt.Value(t, turn.Reply).Equal("Got it!")
	gt.Bool(t, strings.Contains(turn.Reply, "[")).False()
	gt.Array(t, turn.Outcomes).Length(1).Required()
	gt.Value(t, turn.Outcomes[0].Candidate).Equal(model.MemoryCandidate{
		Content: "User likes pasta",
		Tags:    []string{"food", "preference", "italian"},
	})
	gt.Value(t, turn.Outcomes[0].State).Equal(model.CandidatePersisted)
	gt.Array(t, turn.SavedIDs()).Length(1)
}

func TestChat_GirlfriendScenario(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	const userID = model.UserID(42)

	uc := newChat(t, repo,
		echoDirective("Carla sounds lovely!", "User's girlfriend is named Carla", "relationship, partner, carla, extra"),
		hashEmbedder())

	turn, err := uc.Chat(ctx, userID, "My girlfriend is Carla")
	gt.NoError(t, err).Required()

	gt.Array(t, repo.spy.inserted).Length(1).Required()
	row := repo.spy.inserted[0]
	gt.String(t, row.Content).Contains("Carla")
	gt.Bool(t, len(row.Tags) <= model.MaxTags).True()
	gt.Value(t, row.UserID).Equal(userID)
	gt.Bool(t, row.HasEmbedding()).False()

	gt.Value(t, repo.spy.embeddingUpdates).Equal([]model.MemoryID{row.ID})
	stored, err := repo.Memory().Get(ctx, row.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, stored.HasEmbedding()).True()
	gt.Value(t, stored.Category).Equal(model.DefaultCategory)

	gt.Value(t, turn.SavedIDs()).Equal([]model.MemoryID{row.ID})
	gt.Value(t, turn.Reply).Equal("Carla sounds lovely!")
}

func TestChat_GreetingDoesNotInsert(t *testing.T) {
	repo := newSpyRepository()
	uc := newChat(t, repo, replyWith("Hello! How can I help you today?"), hashEmbedder())

	turn, err := uc.Chat(context.Background(), 1, "Hello")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Reply).Equal("Hello! How can I help you today?")
	gt.Array(t, turn.Outcomes).Length(0)
	gt.Value(t, repo.spy.insertCount()).Equal(0)
}

func TestChat_Idempotence(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	uc := newChat(t, repo, echoDirective("Noted.", "Has a dog named Max", "pet, dog"), hashEmbedder())

	first, err := uc.Chat(ctx, 1, "I have a dog named Max")
	gt.NoError(t, err).Required()
	gt.Value(t, first.Outcomes[0].State).Equal(model.CandidatePersisted)

	second, err := uc.Chat(ctx, 1, "I have a dog named Max")
	gt.NoError(t, err).Required()
	gt.Value(t, second.Outcomes[0].State).Equal(model.CandidateExactDuplicate)

	found, err := repo.Memory().FindByContent(ctx, 1, "Has a dog named Max")
	gt.NoError(t, err).Required()
	gt.Array(t, found).Length(1)
}

func TestChat_NearDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()

	// every text embeds to the same vector, so any second fact is near.
	constant := provider.NewDevMock().Embed(ctx, "constant")
	embedder := embedderFunc(func(string) []float32 { return constant })

	facts := []string{"Has a dog named Max", "Has a doggo named Max"}
	var mu sync.Mutex
	n := 0
	completer := &stubCompleter{fn: func(string, string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		f := facts[n]
		n++
		return "Ok [MEMORY: " + f + " | pet]", nil
	}}
	uc := newChat(t, repo, completer, embedder)

	_, err := uc.Chat(ctx, 1, "first")
	gt.NoError(t, err).Required()
	turn, err := uc.Chat(ctx, 1, "second")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Outcomes[0].State).Equal(model.CandidateNearDuplicate)
	gt.Value(t, repo.spy.insertCount()).Equal(1)
}

func TestChat_RejectedCandidate(t *testing.T) {
	repo := newSpyRepository()
	uc := newChat(t, repo, replyWith("Sure [MEMORY: Assistant is thinking | meta]"), hashEmbedder())

	turn, err := uc.Chat(context.Background(), 1, "hmm")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Reply).Equal("Sure")
	gt.Value(t, turn.Outcomes[0].State).Equal(model.CandidateRejected)
	gt.Value(t, repo.spy.insertCount()).Equal(0)
}

func TestChat_GroundingFromMemories(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	_, err := repo.Memory().Insert(ctx, &model.Memory{UserID: 1, Content: "Lives in Lisbon"})
	gt.NoError(t, err).Required()
	_, err = repo.Memory().Insert(ctx, &model.Memory{UserID: 2, Content: "Lives in Tokyo"})
	gt.NoError(t, err).Required()

	completer := replyWith("You live in Lisbon.")
	uc := newChat(t, repo, completer, nilEmbedder{})

	turn, err := uc.Chat(ctx, 1, "Where do I live?")
	gt.NoError(t, err).Required()
	gt.Array(t, turn.Retrieved).Length(1)
	gt.String(t, completer.prompts[0]).Contains("Existing Memories:")
	gt.String(t, completer.prompts[0]).Contains("Lives in Lisbon")
	gt.Bool(t, strings.Contains(completer.prompts[0], "Tokyo")).False()
	gt.Value(t, lastQuestion(completer.prompts[0])).Equal("Where do I live?")
}

func TestChat_ListIntent(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	for i, c := range []string{"Works as a nurse", "Has a dog named Max", "Likes pasta a lot", "Lives in Lisbon"} {
		_, err := repo.Memory().Insert(ctx, &model.Memory{UserID: 1, Content: c, Category: []string{"work", "pets", "food", "home"}[i]})
		gt.NoError(t, err).Required()
	}

	uc := newChat(t, repo, replyWith("Here is everything."), hashEmbedder(), func(cfg *config.ChatConfig) {
		cfg.Retrieval.Limit = 1
	})

	turn, err := uc.Chat(ctx, 1, "What do you know about me?")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Intent).Equal(model.IntentListMemories)
	gt.Array(t, turn.Retrieved).Length(4)
}

func TestChat_CompletionFailureIsHard(t *testing.T) {
	repo := newSpyRepository()

	t.Run("not configured", func(t *testing.T) {
		uc := newChat(t, repo, provider.NewClient(provider.Config{}), hashEmbedder())
		_, err := uc.Chat(context.Background(), 1, "Hello")
		gt.Error(t, err).Is(provider.ErrNotConfigured)
	})

	t.Run("request failed", func(t *testing.T) {
		uc := newChat(t, repo, &stubCompleter{fn: func(string, string) (string, error) {
			return "", provider.ErrRequestFailed
		}}, hashEmbedder())
		_, err := uc.Chat(context.Background(), 1, "Hello")
		gt.Error(t, err).Is(provider.ErrRequestFailed)
	})

	t.Run("empty message", func(t *testing.T) {
		uc := newChat(t, repo, replyWith("x"), hashEmbedder())
		_, err := uc.Chat(context.Background(), 1, "   ")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestChat_PersistenceFailureStillReplies(t *testing.T) {
	repo := newSpyRepository()
	repo.spy.insertErr = errors.New("disk full")
	uc := newChat(t, repo, replyWith("Got it! [MEMORY: User likes pasta | food]"), hashEmbedder())

	turn, err := uc.Chat(context.Background(), 1, "I love pasta")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Reply).Equal("Got it!")
	gt.Value(t, turn.Outcomes[0].State).Equal(model.CandidateFailed)
	gt.Array(t, turn.SavedIDs()).Length(0)
}

func TestChat_EmbeddingUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	uc := newChat(t, repo, replyWith("Got it! [MEMORY: User likes pasta | food]"), nilEmbedder{})

	turn, err := uc.Chat(ctx, 1, "I love pasta")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Outcomes[0].State).Equal(model.CandidatePersisted)
	gt.Array(t, repo.spy.embeddingUpdates).Length(0)

	pending, err := repo.Memory().ListWithoutEmbedding(ctx, 0, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, pending).Length(1)
}

func TestChat_SideChannelMode(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()

	completer := &stubCompleter{fn: func(prompt, system string) (string, error) {
		if strings.Contains(prompt, "Extract: NONE") {
			if strings.Contains(prompt, "Carla") {
				return "Extract: Girlfriend is named Carla\nTags: relationship, partner", nil
			}
			return "Extract: NONE", nil
		}
		return "That's great! [MEMORY: left untouched here | x]", nil
	}}

	uc := newChat(t, repo, completer, hashEmbedder(), func(cfg *config.ChatConfig) {
		cfg.Extraction.Mode = model.ExtractionSideChannel
	})

	turn, err := uc.Chat(ctx, 1, "My girlfriend is Carla")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Reply).Equal("That's great! [MEMORY: left untouched here | x]")
	gt.Array(t, repo.spy.inserted).Length(1).Required()
	gt.Value(t, repo.spy.inserted[0].Content).Equal("Girlfriend is named Carla")

	turn, err = uc.Chat(ctx, 1, "Hello")
	gt.NoError(t, err).Required()
	gt.Array(t, turn.Outcomes).Length(0)
	gt.Value(t, repo.spy.insertCount()).Equal(1)
}

func TestChat_SerializePerUser(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepository()
	uc := newChat(t, repo, echoDirective("Noted.", "Has a dog named Max", "pet"), hashEmbedder(), func(cfg *config.ChatConfig) {
		cfg.Extraction.SerializePerUser = true
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Chat(ctx, 1, "I have a dog named Max")
			gt.NoError(t, err)
		}()
	}
	wg.Wait()

	gt.Value(t, repo.spy.insertCount()).Equal(1)
}

func TestChat_DevMock(t *testing.T) {
	mock := provider.NewDevMock()
	repo := newSpyRepository()
	uc := newChat(t, repo, mock, mock)

	turn, err := uc.Chat(context.Background(), 1, "Hello there")
	gt.NoError(t, err).Required()
	gt.Value(t, turn.Reply).Equal(`(dev mock) I received your message: "Hello there"`)
	gt.Value(t, repo.spy.insertCount()).Equal(0)
}

type embedderFunc func(text string) []float32

func (f embedderFunc) Embed(ctx context.Context, text string) []float32 { return f(text) }
