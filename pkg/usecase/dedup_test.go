package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/repository/memory"
	"github.com/secmon-lab/memora/pkg/usecase"
)

func TestDuplicateGuard(t *testing.T) {
	ctx := context.Background()
	embedder := hashEmbedder()
	const userID = model.UserID(1)

	repo := memory.New()
	stored, err := repo.Memory().Insert(ctx, &model.Memory{
		UserID:    userID,
		Content:   "Has a dog named Max",
		Embedding: embedder.Embed(ctx, "Has a dog named Max"),
	})
	gt.NoError(t, err).Required()

	guard := usecase.NewDuplicateGuard(repo, 0.15)

	t.Run("exact content", func(t *testing.T) {
		state, err := guard.Check(ctx, userID, stored.Content, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, state).Equal(model.CandidateExactDuplicate)
	})

	t.Run("near vector", func(t *testing.T) {
		state, err := guard.Check(ctx, userID, "Owns a dog called Max", embedder.Embed(ctx, "Has a dog named Max"))
		gt.NoError(t, err).Required()
		gt.Value(t, state).Equal(model.CandidateNearDuplicate)
	})

	t.Run("distant vector", func(t *testing.T) {
		state, err := guard.Check(ctx, userID, "Lives in Lisbon", embedder.Embed(ctx, "Lives in Lisbon"))
		gt.NoError(t, err).Required()
		gt.Value(t, state).Equal(model.CandidateState(""))
	})

	t.Run("missing vector skips near check", func(t *testing.T) {
		state, err := guard.Check(ctx, userID, "Owns a dog called Max", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, state).Equal(model.CandidateState(""))
	})

	t.Run("other users are not considered", func(t *testing.T) {
		state, err := guard.Check(ctx, model.UserID(2), stored.Content, stored.Embedding)
		gt.NoError(t, err).Required()
		gt.Value(t, state).Equal(model.CandidateState(""))
	})

	t.Run("store failure is reported", func(t *testing.T) {
		_, err := usecase.NewDuplicateGuard(failingRepository{}, 0.15).Check(ctx, userID, "x", nil)
		gt.Value(t, err).NotNil()
	})
}
