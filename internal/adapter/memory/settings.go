package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

type SettingRepo struct{ s *Store }

func (r *SettingRepo) Get(_ context.Context, key string, periodID uuid.NullUUID) (*domain.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	setting, ok := r.s.settings[settingKey{key, periodID}]
	if !ok {
		return nil, domain.ErrSettingNotFound
	}
	cp := *setting
	return &cp, nil
}

func (r *SettingRepo) List(_ context.Context, periodID uuid.NullUUID) ([]domain.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Setting
	for k, setting := range r.s.settings {
		if k.PeriodID == periodID {
			out = append(out, *setting)
		}
	}
	slices.SortFunc(out, func(a, b domain.Setting) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (r *SettingRepo) SetValue(_ context.Context, key string, periodID uuid.NullUUID, value string) (*domain.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	setting, ok := r.s.settings[settingKey{key, periodID}]
	if !ok {
		return nil, domain.ErrSettingNotFound
	}
	setting.Value = value
	cp := *setting
	return &cp, nil
}

func (r *SettingRepo) InsertIfAbsent(_ context.Context, settings []domain.Setting) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inserted := 0
	for _, setting := range settings {
		k := settingKey{Key: setting.Key}
		if _, exists := r.s.settings[k]; exists {
			continue
		}
		setting.ID = uuid.New()
		setting.PeriodID = uuid.NullUUID{}
		r.s.settings[k] = &setting
		inserted++
	}
	return inserted, nil
}
