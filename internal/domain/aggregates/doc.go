// Package aggregates defines domain-facing aggregate contracts.
//
// These contracts avoid persistence/transport details and mark the write
// boundaries where the knowledge invariants (source identity, aka symmetry,
// merge atomicity) are enforced.
package aggregates
