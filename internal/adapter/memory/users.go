package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, name string, roles []domain.Role) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	u := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Roles:     normalizeRoles(roles),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.users[u.ID] = u
	return copyUser(u), nil
}

func (r *UserRepo) GetByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.User
	for _, u := range r.s.users {
		if u.HasRole(role) {
			out = append(out, *copyUser(u))
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return domain.CompareIDs(a.ID, b.ID) })
	return out, nil
}

func (r *UserRepo) AddRole(_ context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	return r.updateRoles(userID, func(roles []domain.Role) []domain.Role {
		return normalizeRoles(append(roles, role))
	})
}

func (r *UserRepo) RemoveRole(_ context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	return r.updateRoles(userID, func(roles []domain.Role) []domain.Role {
		return slices.DeleteFunc(roles, func(x domain.Role) bool { return x == role })
	})
}

// SetDeactivated flags a user as deactivated; deactivated users keep their roles.
func (r *UserRepo) SetDeactivated(_ context.Context, userID uuid.UUID, deactivated bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Deactivated = deactivated
	u.UpdatedAt = r.s.now()
	return nil
}

func (r *UserRepo) updateRoles(userID uuid.UUID, fn func([]domain.Role) []domain.Role) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Roles = fn(slices.Clone(u.Roles))
	u.UpdatedAt = r.s.now()
	return copyUser(u), nil
}

func normalizeRoles(roles []domain.Role) []domain.Role {
	out := slices.Clone(roles)
	slices.Sort(out)
	return slices.Compact(out)
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.Roles = slices.Clone(u.Roles)
	return &cp
}

// Locker is a process-local domain.PeriodLocker.
type Locker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewLocker() *Locker {
	return &Locker{held: make(map[uuid.UUID]struct{})}
}

func (l *Locker) Lock(_ context.Context, periodID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[periodID]; busy {
		return nil, domain.ErrInvalidTransition
	}
	l.held[periodID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, periodID)
			l.mu.Unlock()
		})
	}, nil
}
