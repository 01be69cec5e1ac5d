// Package core contains the domain model for library lending:
// books with copy counts, loans, and the pure decision types used by
// the borrow/return state transitions.
//
// Everything in this package is free of side effects. State is read by
// the feature handlers, decisions are made here on plain values, and the
// resulting changes are applied by a store with compare-and-set semantics.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would
// be called the 'domain' layer.
package core
