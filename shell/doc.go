// Package shell provides the infrastructure layer around the functional core
// of the library lending service.
//
// This package implements the "imperative shell" pattern: command and query
// handlers in the feature slices use it for retry logic, handler results,
// error translation at the service boundary, and serialized views of loans.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
