// Package app provides the application service layer.
//
// Orchestrates use cases: period lifecycle, quantifier assignment, submissions,
// detail views, praise ingestion, settings and roles. Sits between HTTP handlers
// and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
