// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (errors.go, period.go, praise.go, setting.go, etc.)
// with shared types and cross-cutting interfaces. No implementation code beyond small
// value helpers - just contracts. Keeps interfaces on the consumer side to prevent circular imports.
package domain
