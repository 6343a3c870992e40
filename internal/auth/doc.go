// Package auth implements [backend.AuthProvider] for a single local profile.
//
// Sign-in runs the OAuth2 authorization code flow against the configured provider
// (Google by default) through a temporary callback server, fetches the user's profile,
// upserts the [models.Account] and stores a locally signed session token ([TokenIssuer]).
//
// Verified tokens are cached in memory. A timer emits a signed-out [models.SessionChange]
// when the stored session expires, and, when the change broker is bridged, sign-in and
// sign-out in other processes are re-broadcast to local watchers.
package auth
