// Package memory provides in-process implementations of the repository
// contracts. It backs unit tests and single-instance development runs without
// PostgreSQL.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/saucecodee/praise/internal/domain"
)

type quantKey struct {
	PraiseID     uuid.UUID
	QuantifierID uuid.UUID
}

type settingKey struct {
	Key      string
	PeriodID uuid.NullUUID
}

// Store holds every table behind one mutex, so multi-row operations are
// atomic the same way a database transaction would make them.
type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock

	periods         map[uuid.UUID]*domain.Period
	praise          map[uuid.UUID]*domain.Praise
	quantifications map[quantKey]*domain.Quantification
	settings        map[settingKey]*domain.Setting
	users           map[uuid.UUID]*domain.User
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:           clock,
		periods:         make(map[uuid.UUID]*domain.Period),
		praise:          make(map[uuid.UUID]*domain.Praise),
		quantifications: make(map[quantKey]*domain.Quantification),
		settings:        make(map[settingKey]*domain.Setting),
		users:           make(map[uuid.UUID]*domain.User),
	}
}

func (s *Store) Periods() *PeriodRepo                 { return &PeriodRepo{s} }
func (s *Store) Praise() *PraiseRepo                  { return &PraiseRepo{s} }
func (s *Store) Quantifications() *QuantificationRepo { return &QuantificationRepo{s} }
func (s *Store) Settings() *SettingRepo               { return &SettingRepo{s} }
func (s *Store) Users() *UserRepo                     { return &UserRepo{s} }

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// windowLocked returns the praise in w with their quantifications, ordered by
// creation time. Callers hold s.mu.
func (s *Store) windowLocked(w domain.Window) []domain.Praise {
	var out []domain.Praise
	for _, p := range s.praise {
		if w.Contains(p.CreatedAt) {
			out = append(out, s.praiseLocked(p))
		}
	}
	slices.SortFunc(out, comparePraise)
	return out
}

func (s *Store) praiseLocked(p *domain.Praise) domain.Praise {
	cp := *p
	cp.Quantifications = nil
	if p.Score != nil {
		v := *p.Score
		cp.Score = &v
	}
	for k, q := range s.quantifications {
		if k.PraiseID == p.ID {
			cp.Quantifications = append(cp.Quantifications, copyQuantification(q))
		}
	}
	slices.SortFunc(cp.Quantifications, func(a, b domain.Quantification) int {
		return domain.CompareIDs(a.QuantifierID, b.QuantifierID)
	})
	return cp
}

// periodWindowLocked mirrors the SQL window: (previous end date, end date].
func (s *Store) periodWindowLocked(p *domain.Period) domain.Window {
	w := domain.Window{End: p.EndDate}
	for _, other := range s.periods {
		if other.EndDate.Before(p.EndDate) && other.EndDate.After(w.Start) {
			w.Start = other.EndDate
		}
	}
	return w
}

func copyQuantification(q *domain.Quantification) domain.Quantification {
	cp := *q
	if q.Score != nil {
		v := *q.Score
		cp.Score = &v
	}
	return cp
}

func comparePraise(a, b domain.Praise) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return domain.CompareIDs(a.ID, b.ID)
}
