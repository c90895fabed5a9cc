package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
)

// ExportRequest describes a playlist to create on Spotify.
type ExportRequest struct {
	Name        string
	Description string
	Public      bool
	Songs       []models.Song
}

// ExportResult contains all data from a completed export.
type ExportResult struct {
	UserID     string                    // Spotify account the playlist belongs to
	Playlist   *services.SpotifyPlaylist // Created playlist
	SnapshotID string                    // Playlist version after tracks were added
	Added      int                       // Tracks sent to Spotify
	Skipped    int                       // Songs without a usable Spotify link
}

// PartialExportError is returned when the playlist was created but adding tracks failed.
// The empty playlist is left in place.
type PartialExportError struct {
	PlaylistID string
	Err        error
}

func (e *PartialExportError) Error() string {
	return fmt.Sprintf("%v (playlist %s): %v", shared.ErrPartialExport, e.PlaylistID, e.Err)
}

func (e *PartialExportError) Unwrap() []error {
	return []error{shared.ErrPartialExport, e.Err}
}

// SpotifyExporter turns a list of songs into a Spotify playlist.
type SpotifyExporter struct {
	spotify SpotifyClient
}

// NewSpotifyExporter creates an exporter backed by client.
func NewSpotifyExporter(client SpotifyClient) *SpotifyExporter {
	return &SpotifyExporter{spotify: client}
}

// Run resolves the current user, creates the playlist, then adds the tracks, strictly in that order.
//
// It succeeds only if both the create and the add succeed. Songs without a Spotify track link are skipped;
// if none are left nothing is sent to Spotify.
func (e *SpotifyExporter) Run(ctx context.Context, req ExportRequest, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	links := make([]string, len(req.Songs))
	for i, song := range req.Songs {
		links[i] = song.SpotifyURL
	}
	uris, skipped := services.TrackURIs(links)
	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: none of the %d songs has a Spotify track link", shared.ErrInvalidInput, len(req.Songs))
	}

	result := &ExportResult{Skipped: skipped}

	sendProgress(progress, resolveUserUpdate())
	userID, err := e.spotify.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Spotify user: %w", err)
	}
	result.UserID = userID

	sendProgress(progress, createPlaylistUpdate(name, userID))
	pl, err := e.spotify.CreatePlaylist(ctx, userID, name, req.Description, req.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	result.Playlist = pl

	sendProgress(progress, addTracksUpdate(pl, len(uris)))
	snapshot, err := e.spotify.AddTracks(ctx, pl.ID, uris)
	if err != nil {
		return result, &PartialExportError{PlaylistID: pl.ID, Err: err}
	}

	result.SnapshotID = snapshot
	result.Added = len(uris)
	return result, nil
}
