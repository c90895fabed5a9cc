// Package tasks runs the multi-call operations behind pages and commands, with real-time progress reporting.
//
// # Core Operations
//
//  1. [SpotifyExporter.Run] : Songs → Spotify playlist
//     - Resolves the current Spotify user
//     - Creates the playlist
//     - Adds every song that has a Spotify track link
//     - A failure after creation returns [PartialExportError] naming the empty playlist
//
//  2. [LoadHome] and [LoadProfile] : concurrent page loads
//     - Each section is fetched in its own goroutine and lands in its own [Slot]
//     - One failing section does not cancel the others
//
//  3. [CacheSyncer] : API → local SQLite cache
//     - [CacheSyncer.SyncSongs] pages through a song query with bounded, rate limited concurrency
//     - [CacheSyncer.SyncHot100] snapshots the current chart
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates are sent with select/default so a slow or missing reader never blocks an operation.
//
// Dependencies are small consumer interfaces ([SpotifyClient], [HomeSource], [CacheSource], [SongStore]) satisfied by
// services.PopHitsService, services.SpotifyService and the repositories.
package tasks
