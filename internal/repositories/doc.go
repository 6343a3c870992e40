// Package repositories implements SQLite persistence for all domain entities.
//
// Every repository takes a context on each call and wraps driver errors with the
// operation that failed. Timestamps are stored as UTC unix nanoseconds so that
// ordering by creation time stays strict.
//
// Key Implementations:
//   - [BookmarkRepository] : owner-scoped bookmark CRUD ordered newest-first
//   - [AccountRepository] : accounts upserted by provider and subject on sign-in
//   - [SessionRepository] : the single locally stored session
package repositories
