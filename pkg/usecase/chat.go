package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/utils/async"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ChatUseCase runs one retrieval-augmented chat turn: intent filter,
// retrieval, prompt assembly, completion, extraction, deduplication and
// persistence.
type ChatUseCase struct {
	cfg       *config.ChatConfig
	intent    *IntentFilter
	retriever *Retriever
	completer interfaces.Completer
	embedder  interfaces.Embedder
	extractor MemoryExtractor
	policy    *AcceptancePolicy
	guard     *DuplicateGuard
	writer    *memoryWriter
	locks     *userLocks // nil unless SerializePerUser
	now       func() time.Time
}

func NewChatUseCase(
	repo interfaces.Repository,
	cfg *config.ChatConfig,
	completer interfaces.Completer,
	embedder interfaces.Embedder,
	classifier interfaces.Classifier,
	dispatch async.Dispatcher,
) (*ChatUseCase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid chat config")
	}

	intent, err := NewIntentFilter(cfg.Intent.ListPatterns)
	if err != nil {
		return nil, err
	}

	extractor, err := NewMemoryExtractor(cfg.Extraction.Mode, completer)
	if err != nil {
		return nil, err
	}

	policy, err := NewAcceptancePolicy(cfg.Extraction, classifier)
	if err != nil {
		return nil, err
	}

	uc := &ChatUseCase{
		cfg:       cfg,
		intent:    intent,
		retriever: NewRetriever(repo, embedder, cfg.Retrieval),
		completer: completer,
		embedder:  embedder,
		extractor: extractor,
		policy:    policy,
		guard:     NewDuplicateGuard(repo, cfg.Extraction.NearDuplicateThreshold),
		writer:    &memoryWriter{repo: repo, embedder: embedder, dispatch: dispatch},
		now:       time.Now,
	}
	if cfg.Extraction.SerializePerUser {
		uc.locks = newUserLocks()
	}

	return uc, nil
}

// Chat processes message for userID. Only a failure of the main completion
// is returned as an error; every other failure degrades the turn.
func (uc *ChatUseCase) Chat(ctx context.Context, userID model.UserID, message string) (*model.ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "message is required")
	}

	turn := &model.ChatTurn{
		ID:        model.NewTurnID(),
		UserID:    userID,
		Message:   message,
		StartedAt: uc.now(),
	}
	logger := logging.From(ctx).With("turn_id", turn.ID, "user_id", userID)
	ctx = logging.With(ctx, logger)

	turn.Intent = uc.intent.Detect(message)
	if turn.Intent == model.IntentListMemories {
		turn.Retrieved = uc.retriever.All(ctx, userID)
	} else {
		turn.Retrieved = uc.retriever.Retrieve(ctx, userID, message, uc.cfg.Retrieval.Limit)
	}

	instructions := uc.systemInstructions()
	turn.Prompt = AssemblePrompt(turn.Retrieved, instructions, message)

	var sideCandidates []model.MemoryCandidate
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := uc.completer.Complete(egCtx, turn.Prompt, instructions)
		if err != nil {
			return err
		}
		turn.RawOutput = out
		return nil
	})
	eg.Go(func() error {
		candidates, err := uc.extractor.ExtractFromMessage(egCtx, message)
		if err != nil {
			logger.Warn("message extraction failed, skipping", "error", err)
			return nil
		}
		sideCandidates = candidates
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to complete chat", goerr.V("turnID", turn.ID))
	}

	replyCandidates, reply := uc.extractor.ExtractFromReply(ctx, turn.RawOutput)
	turn.Reply = reply

	candidates := append(sideCandidates, replyCandidates...)
	if len(candidates) > 0 {
		turn.Outcomes = uc.processCandidates(ctx, userID, candidates)
	}

	uc.logTurn(ctx, turn)
	return turn, nil
}

func (uc *ChatUseCase) systemInstructions() string {
	if extra := uc.extractor.Instructions(); extra != "" {
		return uc.cfg.Persona + "\n\n" + extra
	}
	return uc.cfg.Persona
}

func (uc *ChatUseCase) processCandidates(ctx context.Context, userID model.UserID, candidates []model.MemoryCandidate) []*model.CandidateOutcome {
	if uc.locks != nil {
		release := uc.locks.Lock(userID)
		defer release()
	}

	outcomes := make([]*model.CandidateOutcome, 0, len(candidates))
	for _, c := range candidates {
		outcomes = append(outcomes, uc.processCandidate(ctx, userID, c))
	}
	return outcomes
}

func (uc *ChatUseCase) processCandidate(ctx context.Context, userID model.UserID, c model.MemoryCandidate) *model.CandidateOutcome {
	logger := logging.From(ctx)
	c.Content = strings.TrimSpace(c.Content)
	outcome := &model.CandidateOutcome{Candidate: c}

	if ok, reason := uc.policy.Evaluate(ctx, c); !ok {
		outcome.State = model.CandidateRejected
		outcome.Reason = reason
		logger.Debug("candidate rejected", "content", c.Content, "reason", reason)
		return outcome
	}

	vec := uc.embedder.Embed(ctx, c.Content)

	state, err := uc.guard.Check(ctx, userID, c.Content, vec)
	if err != nil {
		logger.Warn("duplicate check failed, persisting anyway", "error", err)
	}
	if state != "" {
		outcome.State = state
		logger.Debug("candidate is a duplicate", "content", c.Content, "state", state)
		return outcome
	}

	created, err := uc.writer.Write(ctx, &model.Memory{
		UserID:   userID,
		Content:  c.Content,
		Category: model.DefaultCategory,
		Tags:     c.Tags,
	}, vec)
	if err != nil {
		outcome.State = model.CandidateFailed
		logger.Error("failed to persist memory", "error", err, "content", c.Content)
		return outcome
	}

	outcome.State = model.CandidatePersisted
	outcome.MemoryID = created.ID
	return outcome
}

func (uc *ChatUseCase) logTurn(ctx context.Context, turn *model.ChatTurn) {
	counts := map[model.CandidateState]int{}
	for _, o := range turn.Outcomes {
		counts[o.State]++
	}

	logging.From(ctx).Info("chat turn completed",
		"intent", turn.Intent,
		"extraction_mode", uc.extractor.Mode(),
		"retrieved", len(turn.Retrieved),
		"candidates", len(turn.Outcomes),
		"persisted", counts[model.CandidatePersisted],
		"rejected", counts[model.CandidateRejected],
		"duplicates", counts[model.CandidateExactDuplicate]+counts[model.CandidateNearDuplicate],
		"failed", counts[model.CandidateFailed],
		"duration", uc.now().Sub(turn.StartedAt),
	)
}
