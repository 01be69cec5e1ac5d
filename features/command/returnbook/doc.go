// Package returnbook implements the Return Book use case.
//
// This feature closes an open loan and releases one copy back to availability.
// It follows the Read-Decide-Apply pattern with proper separation between
// infrastructure concerns (CommandHandler) and pure business logic (Decide function).
//
// Return is deliberately not idempotent: returning an already-returned loan is
// a caller error. A loan that belongs to a different user is reported as not
// found so that loan existence does not leak across users.
package returnbook
