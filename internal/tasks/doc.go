// Package tasks runs bulk bookmark operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Import] : create bookmarks from a JSON or YAML file
//     - Paced by a [rate.Limiter] so a large file does not flood the store or the change bus
//     - Optionally skips urls the owner already saved
//     - Reports created, skipped and failed entries
//
//  2. [Engine.Export] : write the owner's bookmarks in several formats at once
//     - Fetches the list once, newest first
//     - Encodes each format on a small worker pool
//     - Writes an export_manifest.json summarizing the files
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// Both operations go through [backend.DataStore], so every imported row is published as a
// change event and open dashboards re-fetch.
package tasks
