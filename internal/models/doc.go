// Package models defines the domain entities shared by the store, the auth provider and the dashboard.
//
// The user-visible entity is [Bookmark]. Supporting entities are:
//   - [Account] : an identity created on first sign-in, unique per provider and subject
//   - [Session] : the signed-in account plus its signed token and expiry
//   - [ChangeEvent] : a row-level notification delivered by the change broker
//
// Store requests are described with [NewBookmark], [Patch], [Filter] and [Order];
// subscriptions are narrowed with an [EventMask].
package models
