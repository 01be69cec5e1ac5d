// Package activeloans implements the Active Loans query use case.
//
// This feature is a pure read operation that returns every open loan held by a
// user, newest first. Returned loans are excluded. The result carries loan
// views ready for serialization, so the handler composes directly with the
// read-through cache wrapper.
package activeloans
