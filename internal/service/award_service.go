package service

import (
	"context"
	"strings"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AwardRequest credits a member either for an item or for a manual reason.
// Exactly one of Item and Reason is set. Amount overrides the item's points.
type AwardRequest struct {
	MemberID primitive.ObjectID
	Item     *domain.ItemRef
	Reason   string
	Amount   *int
	ActorID  primitive.ObjectID
}

// AwardResult reports what an award changed.
type AwardResult struct {
	Entry *domain.LedgerEntry `json:"entry"`
	// Repeat is true when the member was already in the item's completion set.
	Repeat bool `json:"repeat"`
}

type AwardService interface {
	Award(ctx context.Context, req AwardRequest) (*AwardResult, error)
}

type awardService struct {
	store        repository.Store
	ledger       LedgerService
	cache        StandingsCache
	allowRepeats bool
	logger       *zap.Logger
}

// NewAwardService creates the award dispatcher. With allowRepeats false an item
// can be awarded to a member only once.
func NewAwardService(store repository.Store, ledger LedgerService, cache StandingsCache, allowRepeats bool, logger *zap.Logger) AwardService {
	if cache == nil {
		cache = NoopCache()
	}
	return &awardService{
		store:        store,
		ledger:       ledger,
		cache:        cache,
		allowRepeats: allowRepeats,
		logger:       logger,
	}
}

func (s *awardService) Award(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	if req.MemberID.IsZero() {
		return nil, apperr.MemberNotFound
	}
	if req.Item == nil {
		return s.awardManual(ctx, req)
	}
	return s.awardItem(ctx, req)
}

func (s *awardService) awardManual(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperr.Invalid("a reason is required for manual awards")
	}
	if req.Amount == nil || *req.Amount == 0 {
		return nil, apperr.InvalidAmount.WithMessage("manual awards need a non-zero amount")
	}

	entry, err := s.ledger.ApplyDelta(ctx, req.MemberID, *req.Amount, reason, req.ActorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("manual award",
		zap.String("member", req.MemberID.Hex()),
		zap.Int("points", *req.Amount),
		zap.String("actor", req.ActorID.Hex()),
	)
	return &AwardResult{Entry: entry}, nil
}

// awardItem credits the item's points and records completion in one transaction.
func (s *awardService) awardItem(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	if req.Reason != "" {
		return nil, apperr.Invalid("an award names either an item or a reason, not both")
	}
	if req.Amount != nil && *req.Amount == 0 {
		return nil, apperr.InvalidAmount.WithMessage("award amount cannot be zero")
	}

	result := &AwardResult{}
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.store.Items.Get(ctx, *req.Item)
		if err != nil {
			return itemErr(err)
		}

		result.Repeat = item.CompletedByMember(req.MemberID)
		if result.Repeat && !s.allowRepeats {
			return apperr.AlreadyCompleted
		}

		amount := item.Points
		if req.Amount != nil {
			amount = *req.Amount
		}
		if amount == 0 {
			return apperr.InvalidAmount.WithMessage("item has no point value")
		}

		result.Entry, err = s.ledger.ApplyDelta(ctx, req.MemberID, amount, item.AwardReason(), req.ActorID)
		if err != nil {
			return err
		}
		if _, err := s.store.Items.AddCompletion(ctx, *req.Item, req.MemberID); err != nil {
			return itemErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("item award",
		zap.String("member", req.MemberID.Hex()),
		zap.String("kind", string(req.Item.Kind)),
		zap.String("item", req.Item.ID),
		zap.Int("points", result.Entry.Points),
		zap.Bool("repeat", result.Repeat),
	)
	return result, nil
}
