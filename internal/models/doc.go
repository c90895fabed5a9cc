// Package models defines the typed responses of the PopHits REST API.
//
// Every struct mirrors one JSON payload so a shape change surfaces as a decode error instead of a blank field
// further down the stack. The API owns all of these records; nothing here enforces invariants beyond decoding.
//
// The package contains three groups of types:
//
// 1. Catalog records
//   - [Song] : one chart entry with ratings, comments, and bookmark state
//   - [Comment] : a user comment on a song
//   - [Artist] : an artist with hit count
//   - [Timeline] : weekly chart positions for one song
//
// 2. Charts
//   - [ChartSnapshot] : the current Hot 100
//   - [HistoricChart] : the Hot 100 for a past chart date
//
// 3. Users and content
//   - [User], [Profile], [RatingHistory] : account data
//   - [BlogPost] : editorial content
//   - [QuizQuestion] : generated quiz items
//
// [Page] is the generic paginated envelope shared by list endpoints, and [Date] decodes the mix of date-only and
// timestamp strings the API emits.
package models
