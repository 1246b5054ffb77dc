package quantify

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// AssignConfig holds the settings that drive quantifier assignment.
type AssignConfig struct {
	QuantifiersPerReceiver int
	PraisePerQuantifier    int
}

// EligibleQuantifiers returns the active QUANTIFIER users ordered by ID.
func EligibleQuantifiers(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Deactivated || !u.HasRole(domain.RoleQuantifier) {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domain.User) int { return domain.CompareIDs(a.ID, b.ID) })
	return slices.CompactFunc(out, func(a, b domain.User) bool { return a.ID == b.ID })
}

// VerifyPoolSize reports the pool size next to the size needed to assign praise.
//
// Every praise needs k distinct quantifiers. When a receiver is also a
// quantifier one extra member is needed so the receiver can be skipped. The
// pool must also be large enough to keep each quantifier at or below
// PraisePerQuantifier assigned rows.
func VerifyPoolSize(praise []domain.Praise, quantifiers []domain.User, cfg AssignConfig) domain.PoolSize {
	size := domain.PoolSize{QuantifierPoolSize: len(quantifiers)}
	if len(praise) == 0 {
		return size
	}

	inPool := make(map[uuid.UUID]struct{}, len(quantifiers))
	for _, q := range quantifiers {
		inPool[q.ID] = struct{}{}
	}

	required := cfg.QuantifiersPerReceiver
	for _, p := range praise {
		if _, ok := inPool[p.ReceiverID]; ok {
			required++
			break
		}
	}

	if cfg.PraisePerQuantifier > 0 {
		units := len(praise) * cfg.QuantifiersPerReceiver
		byLoad := (units + cfg.PraisePerQuantifier - 1) / cfg.PraisePerQuantifier
		required = max(required, byLoad)
	}

	size.RequiredPoolSize = required
	return size
}

// Assign distributes k quantifications per praise across the pool.
//
// Praise is processed grouped by receiver. Each slot goes to the candidate with
// the lowest running load; ties prefer anyone but the giver, then a quantifier
// already serving the current receiver, then the lower ID. The receiver is
// never assigned their own praise and no quantifier is assigned the same
// praise twice. A final rebalance keeps every two loads within one of each
// other whenever the receiver exclusions allow it.
func Assign(praise []domain.Praise, quantifiers []domain.User, cfg AssignConfig) ([]domain.Quantification, error) {
	size := VerifyPoolSize(praise, quantifiers, cfg)
	if !size.Sufficient() {
		return nil, &domain.PoolSizeError{PoolSize: size}
	}
	if len(praise) == 0 {
		return nil, nil
	}

	ordered := slices.Clone(praise)
	slices.SortFunc(ordered, comparePraiseByReceiver)

	slots := make([]*slot, len(quantifiers))
	for i, q := range quantifiers {
		slots[i] = &slot{quantifierID: q.ID}
	}
	slices.SortFunc(slots, func(a, b *slot) int { return domain.CompareIDs(a.quantifierID, b.quantifierID) })
	h := loadHeap(slices.Clone(slots))

	k := cfg.QuantifiersPerReceiver
	served := make(map[uuid.UUID]map[uuid.UUID]struct{})
	assigned := make([][]*slot, len(ordered))

	for i, p := range ordered {
		onReceiver, ok := served[p.ReceiverID]
		if !ok {
			onReceiver = make(map[uuid.UUID]struct{})
			served[p.ReceiverID] = onReceiver
		}
		for _, s := range h {
			_, s.affinity = onReceiver[s.quantifierID]
			s.giver = s.quantifierID == p.GiverID
		}
		heap.Init(&h)

		picked, err := pick(&h, k, p.ReceiverID)
		if err != nil {
			return nil, err
		}
		for _, s := range picked {
			onReceiver[s.quantifierID] = struct{}{}
		}
		assigned[i] = picked
	}

	for rebalanceOnce(ordered, assigned, slots) {
	}

	out := make([]domain.Quantification, 0, len(ordered)*k)
	for i, p := range ordered {
		for _, s := range assigned[i] {
			out = append(out, domain.Quantification{PraiseID: p.ID, QuantifierID: s.quantifierID})
		}
	}
	return out, nil
}

// pick pops k slots other than the receiver's, bumps their load and pushes
// every popped slot back.
func pick(h *loadHeap, k int, receiverID uuid.UUID) ([]*slot, error) {
	picked := make([]*slot, 0, k)
	var skipped *slot

	for len(picked) < k && h.Len() > 0 {
		s := heap.Pop(h).(*slot)
		if s.quantifierID == receiverID {
			skipped = s
			continue
		}
		picked = append(picked, s)
	}

	if skipped != nil {
		heap.Push(h, skipped)
	}
	if len(picked) < k {
		size := domain.PoolSize{QuantifierPoolSize: h.Len() + len(picked), RequiredPoolSize: k + 1}
		for _, s := range picked {
			heap.Push(h, s)
		}
		return nil, &domain.PoolSizeError{PoolSize: size}
	}

	for _, s := range picked {
		s.load++
		heap.Push(h, s)
	}
	return picked, nil
}

type hop struct {
	from   *slot
	praise int
}

// rebalanceOnce moves one row along an augmenting path from a quantifier to
// another carrying at least two rows less, shifting one praise per hop so the
// nodes in between keep their load. It reports whether a move was made. Once
// no such path exists the loads are as balanced as the exclusions permit.
func rebalanceOnce(praise []domain.Praise, assigned [][]*slot, slots []*slot) bool {
	lo := slots[0].load
	for _, s := range slots {
		lo = min(lo, s.load)
	}

	sources := slices.Clone(slots)
	slices.SortStableFunc(sources, func(a, b *slot) int { return cmp.Compare(b.load, a.load) })

	for _, src := range sources {
		if src.load < lo+2 {
			return false
		}
		dst, parent := augmentingPath(praise, assigned, slots, src)
		if dst == nil {
			continue
		}
		for s := dst; s != src; {
			step := parent[s]
			row := assigned[step.praise]
			row[slices.Index(row, step.from)] = s
			s = step.from
		}
		src.load--
		dst.load++
		return true
	}
	return false
}

// augmentingPath searches breadth first from src. An edge a -> b exists when a
// holds a praise that b could take over: b is neither its receiver nor
// already assigned to it.
func augmentingPath(praise []domain.Praise, assigned [][]*slot, slots []*slot, src *slot) (*slot, map[*slot]hop) {
	parent := map[*slot]hop{src: {}}
	queue := []*slot{src}

	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		for i, p := range praise {
			if !slices.Contains(assigned[i], a) {
				continue
			}
			for _, b := range slots {
				if _, seen := parent[b]; seen {
					continue
				}
				if b.quantifierID == p.ReceiverID || slices.Contains(assigned[i], b) {
					continue
				}
				parent[b] = hop{from: a, praise: i}
				if b.load <= src.load-2 {
					return b, parent
				}
				queue = append(queue, b)
			}
		}
	}
	return nil, nil
}

func comparePraiseByReceiver(a, b domain.Praise) int {
	if c := domain.CompareIDs(a.ReceiverID, b.ReceiverID); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return domain.CompareIDs(a.ID, b.ID)
}

type slot struct {
	quantifierID uuid.UUID
	load         int
	giver        bool
	affinity     bool
}

// loadHeap is a min-heap ordered by (load, giver last, affinity first, ID).
type loadHeap []*slot

func (h loadHeap) Len() int { return len(h) }

func (h loadHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.load != b.load {
		return a.load < b.load
	}
	if a.giver != b.giver {
		return b.giver
	}
	if a.affinity != b.affinity {
		return a.affinity
	}
	return domain.CompareIDs(a.quantifierID, b.quantifierID) < 0
}

func (h loadHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *loadHeap) Push(x any) { *h = append(*h, x.(*slot)) }

func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}
