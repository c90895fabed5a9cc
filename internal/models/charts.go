package models

// ChartSnapshot is the current Hot 100 as served by /api/songs/current-hot100/.
type ChartSnapshot struct {
	ChartDate Date         `json:"chart_date"`
	Songs     []ChartEntry `json:"songs"`
}

// ChartEntry is one position on the current chart. LastWeekPosition and PositionChange are null for new entries.
type ChartEntry struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Artist           string  `json:"artist"`
	Slug             string  `json:"slug"`
	ArtistSlug       string  `json:"artist_slug"`
	Year             int     `json:"year"`
	CurrentPosition  int     `json:"current_position"`
	LastWeekPosition *int    `json:"last_week_position"`
	PositionChange   *int    `json:"position_change"`
	PeakRank         int     `json:"peak_rank"`
	WeeksOnChart     int     `json:"weeks_on_chart"`
	AverageUserScore float64 `json:"average_user_score"`
	TotalRatings     int     `json:"total_ratings"`
	SpotifyURL       string  `json:"spotify_url"`
}

// IsNew reports a debut: no position last week.
func (e ChartEntry) IsNew() bool { return e.LastWeekPosition == nil }

// Movement returns the signed position change, treating null as zero.
func (e ChartEntry) Movement() int {
	if e.PositionChange != nil {
		return *e.PositionChange
	}
	if e.LastWeekPosition != nil {
		return *e.LastWeekPosition - e.CurrentPosition
	}
	return 0
}

// ChartDates lists the chart weeks available for historic lookups.
type ChartDates struct {
	Dates []string `json:"dates"`
}

// HistoricChart is the Hot 100 for a past week.
type HistoricChart struct {
	ChartDate Date                 `json:"chart_date"`
	Entries   []HistoricChartEntry `json:"entries"`
}

// HistoricChartEntry is one position on a past chart.
type HistoricChartEntry struct {
	Position     int    `json:"position"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Slug         string `json:"slug"`
	PeakRank     int    `json:"peak_rank"`
	WeeksOnChart int    `json:"weeks_on_chart"`
	PreviousRank *int   `json:"previous_rank"`
}
