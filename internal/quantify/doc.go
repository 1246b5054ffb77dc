// Package quantify holds the pure quantification engine: quantifier pool
// assignment, duplicate graph validation, score reduction, detail aggregation
// and role-based redaction. Nothing here touches storage; callers pass in a
// consistent snapshot of a period's praise.
package quantify
