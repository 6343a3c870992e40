// Package ui implements the interactive bookmark dashboard using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoadingView] : the session is being resolved
//  2. [EntryView] : the login screen, enter starts the Google OAuth flow
//  3. [ListView] : the signed-in account's bookmarks with an add/edit form
//
// The [Model] never calls the backend from Update. Every backend call runs as a [tea.Cmd]
// and reports back through the Msg union. Live changes and session changes arrive the same
// way: one "wait for the next event" command is armed per subscription and re-armed after
// each delivered event.
//
// Keyboard navigation uses vim-style bindings with contextual help from charmbracelet/bubbles/help.
package ui
