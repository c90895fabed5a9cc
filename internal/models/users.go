package models

import "strings"

// User is the account returned inside a profile response.
type User struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Scores   []Score `json:"scores,omitempty"`
}

// Score is one rating a user gave a song.
type Score struct {
	SongID int `json:"song_id"`
	Score  int `json:"score"`
}

// Profile is the /api/profile/ payload.
type Profile struct {
	User          User            `json:"user_data"`
	RatingHistory []RatingHistory `json:"rating_history"`
	Message       string          `json:"message"`
}

// RatingHistory is a rated song as listed on the profile.
type RatingHistory struct {
	SongTitle  string `json:"song_title"`
	SongArtist string `json:"song_artist"`
	SongSlug   string `json:"song_slug"`
	SpotifyURL string `json:"spotify_url"`
	Score      int    `json:"score"`
	Date       Date   `json:"date"`
}

// AuthToken is returned by register and login.
type AuthToken struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// Credentials are sent to register and login. Username is only required for registration.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields. Registration additionally needs a username.
func (c Credentials) Validate(register bool) error {
	var missing []string
	if register && strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError lists required fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ProfileUpdate is the PATCH body for /api/profile/update/. Empty fields are left unchanged by the server.
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Message is the common {"message": ...} acknowledgement.
type Message struct {
	Message string `json:"message"`
	Success string `json:"success,omitempty"`
}
