package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

// DuplicateGuard detects candidates already stored for the same user, by
// identical content or by vector distance below a threshold.
type DuplicateGuard struct {
	repo      interfaces.Repository
	threshold float64
}

func NewDuplicateGuard(repo interfaces.Repository, threshold float64) *DuplicateGuard {
	return &DuplicateGuard{repo: repo, threshold: threshold}
}

// Check returns CandidateExactDuplicate, CandidateNearDuplicate or "" when
// the candidate is new. A nil vector skips the near-duplicate check.
func (g *DuplicateGuard) Check(ctx context.Context, userID model.UserID, content string, vec []float32) (model.CandidateState, error) {
	exact, err := g.repo.Memory().FindByContent(ctx, userID, content)
	if err != nil {
		return "", goerr.Wrap(err, "failed to look up identical memory", goerr.V("userID", userID))
	}
	if len(exact) > 0 {
		return model.CandidateExactDuplicate, nil
	}

	if len(vec) == 0 {
		return "", nil
	}

	nearest, err := g.repo.Memory().FindNearest(ctx, userID, vec, 1)
	if err != nil {
		return "", goerr.Wrap(err, "failed to look up nearest memory", goerr.V("userID", userID))
	}
	if len(nearest) > 0 && nearest[0].Distance < g.threshold {
		return model.CandidateNearDuplicate, nil
	}

	return "", nil
}
