package tasks

import (
	"fmt"

	"github.com/desertthunder/pophits/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSongs Phase = iota
	CacheSongs
	FetchChart
	CacheChart
	ResolveUser
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchSongs:
		return "fetch_songs"
	case CacheSongs:
		return "cache_songs"
	case FetchChart:
		return "fetch_chart"
	case CacheChart:
		return "cache_chart"
	case ResolveUser:
		return "resolve_user"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// A nil channel drops every update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPageUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching songs page...", step, total),
	}
}

func cachedPageUpdate(step, total, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ cached %d songs", step, total, n),
	}
}

func failedPageUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %v", step, total, err),
	}
}

func fetchChartUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchChart, Step: 1, Total: 2, Message: "Fetching current Hot 100..."}
}

func cacheChartUpdate(date string, entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheChart,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Caching chart for %s (%d entries)", date, entries),
	}
}

func resolveUserUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ResolveUser, Step: 1, Total: 3, Message: "Looking up Spotify account..."}
}

func createPlaylistUpdate(name, userID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Creating playlist %q for %s...", name, userID),
	}
}

func addTracksUpdate(pl *services.SpotifyPlaylist, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("Adding %d tracks to %s (ID: %s)...", n, pl.Name, pl.ID),
		Data:    pl,
	}
}
