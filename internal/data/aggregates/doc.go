// Package aggregates implements the knowledge aggregate contracts.
//
// Aggregates compose the table-level repos from internal/data/repos and own
// the transaction for every write that has to keep source identity, aka
// symmetry or merge atomicity intact.
package aggregates
