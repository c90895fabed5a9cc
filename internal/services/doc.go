// Package services implements typed clients for the PopHits REST API and the Spotify Web API.
//
// # PopHits
//
// [PopHitsService] has one method per endpoint. Every method takes a [context.Context], builds the
// path and query, attaches "Authorization: Token <token>" when its [TokenSource] has one, and decodes
// the JSON body into the types in the models package. There are no retries and no caching.
//
// List requests go through [SongQuery], a copy-on-write value whose modifiers reset the page when a
// filter changes. [ParseSongQuery] is its inverse so web handlers can round-trip state through the URL.
//
// # Spotify
//
// [SpotifyService] uses the implicit grant: [SpotifyService.AuthURL] asks for response_type=token and
// [ParseFragment] reads the token back out of the redirect. Requests go through an [oauth2] transport
// built from the stored token. A 401 clears the token from the [SpotifyTokenStore].
//
// # Error Handling
//
// Non-2xx PopHits responses return [*APIError], which matches shared sentinels with errors.Is:
//   - [shared.ErrAPIRequest] : any non-2xx response
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrNotAuthenticated] : 401 or 403
//   - [shared.ErrInvalidInput] : 400
//   - [shared.ErrServiceUnavailable] : 5xx or transport failure
//
// Bodies that fail to decode wrap [shared.ErrDecode]. Arguments are validated before any request and
// fail with [shared.ErrInvalidArgument], [shared.ErrMissingArgument] or [shared.ErrInvalidRating].
package services
