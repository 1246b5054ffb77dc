package settings

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/saucecodee/praise/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type seedEntry struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// Defaults returns the global settings every installation starts with.
func Defaults() ([]domain.Setting, error) {
	return parseDefaults(defaultsYAML)
}

func parseDefaults(data []byte) ([]domain.Setting, error) {
	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse settings defaults: %w", err)
	}

	out := make([]domain.Setting, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("duplicate default setting %s", e.Key)
		}
		seen[e.Key] = struct{}{}

		t := domain.SettingType(e.Type)
		if err := Validate(t, e.Value); err != nil {
			return nil, fmt.Errorf("default setting %s: %w", e.Key, err)
		}
		out = append(out, domain.Setting{
			Key:         e.Key,
			Value:       e.Value,
			Type:        t,
			Label:       e.Label,
			Description: e.Description,
		})
	}
	return out, nil
}

// Seed inserts the defaults that are not present yet. Existing values are never touched.
func Seed(ctx context.Context, repo domain.SettingRepository) error {
	defaults, err := Defaults()
	if err != nil {
		return err
	}

	inserted, err := repo.InsertIfAbsent(ctx, defaults)
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	slog.Info("Settings seeded", "inserted", inserted, "defaults", len(defaults))
	return nil
}
