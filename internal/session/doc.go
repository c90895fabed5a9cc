// Package session holds the signed-in user's credentials for the lifetime of a process.
//
// A single [Session] is built at startup and handed to the API client (as its token source),
// the Spotify helper (as its token store), web handlers and the CLI. Nothing reads tokens
// from globals.
//
// [Manager] wires a session to a [Store]: it restores the last snapshot, saves every change,
// and drives login, registration and logout against the API. [Manager.Watch] follows the
// session file so a login in one terminal is picked up by a running server or TUI.
package session
