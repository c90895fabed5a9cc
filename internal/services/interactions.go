package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// Rating scale. A score of [ClearScore] removes the user's rating.
const (
	ClearScore = 0
	MinScore   = 1
	MaxScore   = 10
)

// ValidateScore accepts 1-10 and [ClearScore].
func ValidateScore(score int) error {
	if score == ClearScore || (score >= MinScore && score <= MaxScore) {
		return nil
	}
	return fmt.Errorf("%w: %w: got %d", shared.ErrInvalidInput, shared.ErrInvalidRating, score)
}

// ToggleScore returns the score to submit when a user clicks clicked while holding current.
// Clicking the score already selected clears the rating.
func ToggleScore(current, clicked int) int {
	if clicked == current {
		return ClearScore
	}
	return clicked
}

// RateSong submits the user's score for a song. A score of 0 clears the rating.
func (s *PopHitsService) RateSong(ctx context.Context, songID, score int) error {
	if err := requireID(songID); err != nil {
		return err
	}
	if err := ValidateScore(score); err != nil {
		return err
	}

	body := map[string]int{"rating": score}
	if err := s.post(ctx, fmt.Sprintf("/api/songs/%d/rate/", songID), body, nil); err != nil {
		return fmt.Errorf("rate song %d: %w", songID, err)
	}
	return nil
}

// ClearRating removes the user's rating for a song.
func (s *PopHitsService) ClearRating(ctx context.Context, songID int) error {
	return s.RateSong(ctx, songID, ClearScore)
}

// UserRating returns the score userID gave songID, or 0 if none.
func (s *PopHitsService) UserRating(ctx context.Context, songID, userID int) (int, error) {
	if err := requireID(songID); err != nil {
		return 0, err
	}
	if err := requireID(userID); err != nil {
		return 0, err
	}

	var score int
	path := fmt.Sprintf("/api/songs/ratings/%d/user/%d/", songID, userID)
	if err := s.get(ctx, path, nil, &score); err != nil {
		return 0, fmt.Errorf("user rating: %w", err)
	}
	return score, nil
}

// AddComment posts a comment on a song.
func (s *PopHitsService) AddComment(ctx context.Context, songID int, text string) (*models.Comment, error) {
	if err := requireID(songID); err != nil {
		return nil, err
	}
	if err := requireText(text); err != nil {
		return nil, err
	}

	var comment models.Comment
	body := map[string]string{"comment_text": strings.TrimSpace(text)}
	if err := s.post(ctx, fmt.Sprintf("/api/songs/%d/comment/", songID), body, &comment); err != nil {
		return nil, fmt.Errorf("comment on song %d: %w", songID, err)
	}
	return &comment, nil
}

// EditComment replaces the text of one of the user's comments.
func (s *PopHitsService) EditComment(ctx context.Context, songID, commentID int, text string) (*models.Comment, error) {
	if err := requireID(songID); err != nil {
		return nil, err
	}
	if err := requireID(commentID); err != nil {
		return nil, err
	}
	if err := requireText(text); err != nil {
		return nil, err
	}

	var comment models.Comment
	path := fmt.Sprintf("/api/songs/%d/comment/%d/", songID, commentID)
	body := map[string]string{"text": strings.TrimSpace(text)}
	if err := s.do(ctx, http.MethodPatch, path, nil, body, &comment); err != nil {
		return nil, fmt.Errorf("edit comment %d: %w", commentID, err)
	}
	return &comment, nil
}

// DeleteComment removes one of the user's comments.
func (s *PopHitsService) DeleteComment(ctx context.Context, commentID int) error {
	if err := requireID(commentID); err != nil {
		return err
	}

	path := fmt.Sprintf("/api/songs/%d/comment/", commentID)
	if err := s.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return nil
}

// CommentStatus reports whether the user already commented on a song.
func (s *PopHitsService) CommentStatus(ctx context.Context, songID int) (bool, error) {
	if err := requireID(songID); err != nil {
		return false, err
	}

	var status models.CommentStatus
	if err := s.get(ctx, fmt.Sprintf("/api/songs/%d/comment-status/", songID), nil, &status); err != nil {
		return false, fmt.Errorf("comment status: %w", err)
	}
	return status.HasCommented, nil
}

// ToggleBookmark adds or removes a song from the user's bookmarks.
func (s *PopHitsService) ToggleBookmark(ctx context.Context, songID int) (*models.BookmarkResult, error) {
	if err := requireID(songID); err != nil {
		return nil, err
	}

	var result models.BookmarkResult
	if err := s.post(ctx, fmt.Sprintf("/api/songs/%d/bookmark/", songID), nil, &result); err != nil {
		return nil, fmt.Errorf("bookmark song %d: %w", songID, err)
	}
	return &result, nil
}

// BookmarkStatus reports whether the user bookmarked a song.
func (s *PopHitsService) BookmarkStatus(ctx context.Context, songID int) (bool, error) {
	if err := requireID(songID); err != nil {
		return false, err
	}

	var status models.BookmarkStatus
	if err := s.get(ctx, fmt.Sprintf("/api/songs/%d/bookmark-status/", songID), nil, &status); err != nil {
		return false, fmt.Errorf("bookmark status: %w", err)
	}
	return status.IsBookmarked, nil
}

// BookmarkedSongs lists the user's bookmarked songs.
func (s *PopHitsService) BookmarkedSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := s.get(ctx, "/api/songs/bookmarked-songs/", nil, &songs); err != nil {
		return nil, fmt.Errorf("bookmarked songs: %w", err)
	}
	return songs, nil
}

// ClearBookmarks removes every bookmark of the user.
func (s *PopHitsService) ClearBookmarks(ctx context.Context) error {
	if err := s.do(ctx, http.MethodDelete, "/api/songs/bookmarked-songs/", nil, nil, nil); err != nil {
		return fmt.Errorf("clear bookmarks: %w", err)
	}
	return nil
}

func requireID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", shared.ErrInvalidArgument, id)
	}
	return nil
}

func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment text", shared.ErrMissingArgument)
	}
	return nil
}
