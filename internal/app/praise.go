package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

// PraiseInput is a praise submission from the bot or API. One praise is created
// per distinct receiver.
type PraiseInput struct {
	GiverID     uuid.UUID
	ReceiverIDs []uuid.UUID
	ForwarderID uuid.NullUUID
	Reason      string
	SourceID    string
	SourceName  string
}

type CreatePraiseResult struct {
	Praise            []domain.Praise
	SelfPraiseSkipped bool
}

var mentionMarkup = regexp.MustCompile(`<[@#][!&]?(\d+)>`)

// realizeReason collapses chat mention markup and whitespace into plain text.
func realizeReason(reason string) string {
	plain := mentionMarkup.ReplaceAllString(reason, "@$1")
	return strings.Join(strings.Fields(plain), " ")
}

// CreatePraise records praise from a giver to each receiver.
func (s *Service) CreatePraise(ctx context.Context, in PraiseInput) (*CreatePraiseResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}
	if len(in.ReceiverIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one receiver is required", domain.ErrInvalidInput)
	}

	if in.ForwarderID.Valid {
		ok, err := s.HasRole(ctx, in.ForwarderID.UUID, domain.RoleForwarder)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: forwarder role required", domain.ErrForbidden)
		}
	}

	var periodID uuid.NullUUID
	current, err := s.periods.GetByDate(ctx, s.clock.Now())
	switch {
	case err == nil && current.Status != domain.PeriodOpen:
		return nil, fmt.Errorf("%w: current period is %s", domain.ErrPeriodNotOpen, current.Status)
	case err == nil:
		periodID = domain.ValidID(current.ID)
	case !errors.Is(err, domain.ErrPeriodNotFound):
		return nil, err
	}

	selfAllowed, err := s.resolver.Bool(ctx, domain.KeySelfPraiseAllowed, uuid.NullUUID{})
	if err != nil {
		return nil, err
	}

	receivers := slices.Clone(in.ReceiverIDs)
	slices.SortFunc(receivers, domain.CompareIDs)
	receivers = slices.Compact(receivers)

	res := &CreatePraiseResult{}
	for _, receiverID := range receivers {
		if receiverID == in.GiverID && !selfAllowed {
			res.SelfPraiseSkipped = true
			continue
		}

		p, err := s.praise.Create(ctx, domain.NewPraise{
			PeriodID:       periodID,
			GiverID:        in.GiverID,
			ReceiverID:     receiverID,
			ForwarderID:    in.ForwarderID,
			Reason:         reason,
			ReasonRealized: realizeReason(reason),
			SourceID:       in.SourceID,
			SourceName:     in.SourceName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create praise: %w", err)
		}
		res.Praise = append(res.Praise, *p)
	}

	if len(res.Praise) == 0 && res.SelfPraiseSkipped {
		return res, domain.ErrSelfPraise
	}

	slog.Info("Praise created", "giver_id", in.GiverID.String(), "count", len(res.Praise), "self_praise_skipped", res.SelfPraiseSkipped)
	return res, nil
}

// GetPraise returns a praise with its realized score recomputed from its
// period snapshot. A quantifier under receiver pseudonyms gets the praise
// assigned to them without its receiver.
func (s *Service) GetPraise(ctx context.Context, praiseID, callerID uuid.UUID) (*domain.Praise, error) {
	p, err := s.praise.GetByID(ctx, praiseID)
	if err != nil {
		return nil, err
	}

	period, err := s.periods.GetByDate(ctx, p.CreatedAt)
	if errors.Is(err, domain.ErrPeriodNotFound) {
		p.Score = nil
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx, period.ID)
	if err != nil {
		return nil, err
	}
	res, err := s.reduce(ctx, snap)
	if err != nil {
		return nil, err
	}

	hide, err := s.hidesReceivers(ctx, period, callerID)
	if err != nil {
		return nil, err
	}
	for _, sp := range quantify.WithScores(snap.praise, res) {
		if sp.ID == praiseID {
			out := quantify.RedactPraise(period.Status, []domain.Praise{sp}, s.isAdmin(ctx, callerID))
			if hide && assignedTo(sp, callerID) {
				out[0].ReceiverID = uuid.Nil
			}
			return &out[0], nil
		}
	}
	return nil, domain.ErrPraiseNotFound
}
