package domain

import (
	"context"

	"github.com/google/uuid"
)

// SettingType describes how a setting value string is interpreted.
type SettingType string

const (
	SettingString   SettingType = "String"
	SettingNumber   SettingType = "Number"
	SettingBoolean  SettingType = "Boolean"
	SettingList     SettingType = "List"
	SettingTextarea SettingType = "Textarea"
	SettingImage    SettingType = "Image"
)

// Valid reports whether t is a known setting type.
func (t SettingType) Valid() bool {
	switch t {
	case SettingString, SettingNumber, SettingBoolean, SettingList, SettingTextarea, SettingImage:
		return true
	default:
		return false
	}
}

// Setting keys read by the quantification engine.
const (
	KeyQuantifiersPerReceiver    = "PRAISE_QUANTIFIERS_PER_PRAISE_RECEIVER"
	KeyPraisePerQuantifier       = "PRAISE_PER_QUANTIFIER"
	KeyDuplicatePraisePercentage = "PRAISE_QUANTIFY_DUPLICATE_PRAISE_PERCENTAGE"
	KeyAllowedValues             = "PRAISE_QUANTIFY_ALLOWED_VALUES"
	KeyReceiverPseudonyms        = "PRAISE_QUANTIFY_RECEIVER_PSEUDONYMS"
	KeySelfPraiseAllowed         = "SELF_PRAISE_ALLOWED"
)

// PeriodSettingKeys are copied into period scope when a period is created.
var PeriodSettingKeys = []string{
	KeyQuantifiersPerReceiver,
	KeyPraisePerQuantifier,
	KeyDuplicatePraisePercentage,
	KeyAllowedValues,
	KeyReceiverPseudonyms,
}

// Setting is a named configuration value. PeriodID unset means global default.
type Setting struct {
	ID          uuid.UUID
	Key         string
	Value       string
	Type        SettingType
	Label       string
	Description string
	PeriodID    uuid.NullUUID
}

type SettingRepository interface {
	// Get returns the row for key in exactly the given scope (no fallback).
	Get(ctx context.Context, key string, periodID uuid.NullUUID) (*Setting, error)
	List(ctx context.Context, periodID uuid.NullUUID) ([]Setting, error)
	SetValue(ctx context.Context, key string, periodID uuid.NullUUID, value string) (*Setting, error)
	// InsertIfAbsent writes global settings whose key does not exist yet and
	// reports how many were inserted.
	InsertIfAbsent(ctx context.Context, settings []Setting) (int, error)
}

// SettingSource reads a setting in exactly one scope. Implementations may cache
// (e.g., in-memory -> Redis -> PostgreSQL).
type SettingSource interface {
	Get(ctx context.Context, key string, periodID uuid.NullUUID) (*Setting, error)
}

// SettingCacheInvalidator drops cached values for a key in one scope.
type SettingCacheInvalidator interface {
	InvalidateSetting(ctx context.Context, key string, periodID uuid.NullUUID) error
}
