// Package ui implements an interactive terminal song browser using bubbletea's Elm architecture.
//
// Two views share one [Model]:
//  1. [SongListView] : Browse a page of songs; page with n/p, toggle #1 hits with t
//  2. [SongDetailView] : Read a song's chart run, comments and rating; rate with 1-9 and 0 (10)
//
// Every fetch runs as a [tea.Cmd] bound to the model's context and reports back through the Msg union,
// so a failed request always replaces the spinner with an error line instead of leaving the view loading.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
