// Package repositories implements the opt-in SQLite cache behind the cache commands.
//
// Key Implementations:
//   - [SongRepository] : songs keyed by API id, upserted on every fetch, searchable by a normalized title/artist key
//   - [ChartRepository] : Hot 100 snapshots, one per chart date, with entries ordered by position
//
// Full records are stored as JSON payloads next to the indexed columns so a cached song reads back
// exactly as the API served it. Schema lives in shared/sql and is applied by [shared.RunMigrations].
package repositories
