// Package dashboard holds the view-independent behavior of the bookmark list.
//
//   - [Gate] resolves the session into a [Resolution] and watches for sign-in and sign-out.
//   - [Synchronizer] fetches the owner's bookmarks newest-first and opens a [Feed] of
//     change events; every event means "fetch again".
//   - [Form] is the input state machine: Idle or Editing(id).
//   - [Handlers] perform create, update and delete against the store.
//   - [Board] wires the pieces together synchronously for one session.
//
// The [models.Session] is passed explicitly to every call; nothing here holds global state.
// The interactive view in internal/ui drives the same pieces asynchronously.
package dashboard
