package quantify

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// ValidateDuplicateTarget checks that praiseID may be marked a duplicate of
// targetID given the period snapshot. The target must be another
// praise in the same period for the same receiver, and the new edge must not
// close a cycle in the duplicate graph.
func ValidateDuplicateTarget(snapshot []domain.Praise, praiseID, targetID uuid.UUID) error {
	if praiseID == targetID {
		return fmt.Errorf("%w: praise cannot duplicate itself", domain.ErrInvalidDuplicateTarget)
	}

	byID := make(map[uuid.UUID]*domain.Praise, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].ID] = &snapshot[i]
	}

	p, ok := byID[praiseID]
	if !ok {
		return domain.ErrPraiseNotFound
	}
	target, ok := byID[targetID]
	if !ok {
		return fmt.Errorf("%w: praise %s is not in the same period", domain.ErrInvalidDuplicateTarget, targetID)
	}
	if target.ReceiverID != p.ReceiverID {
		return fmt.Errorf("%w: praise %s has a different receiver", domain.ErrInvalidDuplicateTarget, targetID)
	}

	edges := func(id uuid.UUID) []uuid.UUID {
		node, ok := byID[id]
		if !ok {
			return nil
		}
		var out []uuid.UUID
		for _, q := range node.Quantifications {
			if q.DuplicatePraiseID.Valid {
				out = append(out, q.DuplicatePraiseID.UUID)
			}
		}
		return out
	}

	seen := map[uuid.UUID]struct{}{targetID: {}}
	queue := []uuid.UUID{targetID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range edges(id) {
			if next == praiseID {
				return fmt.Errorf("%w: %w", domain.ErrInvalidDuplicateTarget, domain.ErrDuplicateCycleDetected)
			}
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return nil
}
