package domain

import (
	"bytes"

	"github.com/google/uuid"
)

// CompareIDs orders UUIDs by their byte representation.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// ValidID wraps id as a set nullable UUID.
func ValidID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}
