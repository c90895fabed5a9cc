// Package server provides HTTP routing, middleware, and the Spotify sign-in callback for the CLI and web pages.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// "METHOD /path" patterns on an [http.ServeMux] and wraps each handler with the middleware added before it.
//
// # Middleware
//
//   - [RequestID] : X-Request-ID passthrough or a fresh UUID
//   - [Logger] : one structured log line per request
//   - [Recoverer] : panics become 500s
//   - [CORS] : rs/cors for the configured origins
//
// # Spotify Callback
//
// Spotify's implicit grant returns the access token in the URL fragment. [CallbackPage] forwards the fragment
// to a server route as a query string. [OAuthHandler] accepts exactly one forwarded token with a matching state
// and delivers it on a channel, which is how `pophits spotify login` waits for the browser.
//
// [Server] wraps http.Server with context-driven graceful shutdown.
package server
