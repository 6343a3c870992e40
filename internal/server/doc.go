// Package server hosts the local OAuth redirect target used by sign-in.
//
// [StartCallbackServer] binds the configured address, mounts an [OAuthHandler] on a
// [BasicRouter] with [Recover] and [Logging] middleware and serves until
// [CallbackServer.Wait] returns a token, an error or a timeout ([DefaultCallbackTimeout]).
//
// The handler accepts exactly one request. It rejects a mismatched state, surfaces the
// provider's error parameters and exchanges the code for a token.
// The browser gets a small HTML page either way.
package server
