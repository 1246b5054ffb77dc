package settings

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/saucecodee/praise/internal/domain"
)

// Validate checks that value can be read as the given setting type.
func Validate(t domain.SettingType, value string) error {
	switch t {
	case domain.SettingNumber:
		if _, err := parseNumber(value); err != nil {
			return err
		}
	case domain.SettingBoolean:
		if _, err := parseBool(value); err != nil {
			return err
		}
	case domain.SettingList:
		if len(parseList(value)) == 0 {
			return fmt.Errorf("%w: list must contain at least one item", domain.ErrInvalidSettingValue)
		}
	case domain.SettingString, domain.SettingTextarea, domain.SettingImage:
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidSettingValue, t)
	}
	return nil
}

func parseNumber(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidSettingValue, value)
	}
	return f, nil
}

func parseBool(value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidSettingValue, value)
	}
	return b, nil
}

func parseList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseAllowedValues reads a comma separated numeric scale and returns it
// sorted ascending without duplicates.
func ParseAllowedValues(value string) ([]float64, error) {
	items := parseList(value)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: allowed values are empty", domain.ErrInvalidSettingValue)
	}

	values := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := parseNumber(item)
		if err != nil {
			return nil, err
		}
		values = append(values, f)
	}

	slices.Sort(values)
	return slices.Compact(values), nil
}
