package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

const (
	DefaultNumberOfSongs = 10
	DefaultHitSize       = 5
	MinDecade            = 1950
)

// hitSizeCutoffs maps the 1-10 hit level slider to the worst peak rank included.
var hitSizeCutoffs = map[int]int{1: 1, 2: 3, 3: 5, 4: 10, 5: 20, 6: 30, 7: 50, 8: 60, 9: 80, 10: 100}

// HitSizeCutoff returns the lowest chart peak a hit level admits. Level 1 is #1 hits only.
func HitSizeCutoff(level int) (int, bool) {
	rank, ok := hitSizeCutoffs[level]
	return rank, ok
}

// GeneratorParams selects songs for a generated playlist or quiz.
type GeneratorParams struct {
	NumberOfSongs int
	HitSize       int
	Decades       []int
}

// Values encodes the parameters with one "decades" entry per decade.
func (p GeneratorParams) Values() url.Values {
	v := url.Values{}
	v.Set("number_of_songs", strconv.Itoa(p.NumberOfSongs))
	v.Set("hit_size", strconv.Itoa(p.HitSize))

	decades := append([]int(nil), p.Decades...)
	sort.Ints(decades)
	for _, d := range decades {
		v.Add("decades", strconv.Itoa(d))
	}
	return v
}

// Normalize fills defaults for unset fields.
func (p GeneratorParams) Normalize() GeneratorParams {
	if p.NumberOfSongs <= 0 {
		p.NumberOfSongs = DefaultNumberOfSongs
	}
	if p.HitSize == 0 {
		p.HitSize = DefaultHitSize
	}
	return p
}

// Validate checks the parameters the generator endpoints require.
func (p GeneratorParams) Validate() error {
	if len(p.Decades) == 0 {
		return fmt.Errorf("%w: at least one decade is required", shared.ErrMissingArgument)
	}
	for _, d := range p.Decades {
		if d < MinDecade || d%10 != 0 {
			return fmt.Errorf("%w: invalid decade %d", shared.ErrInvalidArgument, d)
		}
	}
	if _, ok := HitSizeCutoff(p.HitSize); !ok {
		return fmt.Errorf("%w: hit size must be 1-10, got %d", shared.ErrInvalidArgument, p.HitSize)
	}
	if p.NumberOfSongs < 1 || p.NumberOfSongs > 100 {
		return fmt.Errorf("%w: number of songs must be 1-100, got %d", shared.ErrInvalidArgument, p.NumberOfSongs)
	}
	return nil
}

// GeneratePlaylist asks the server for a random selection of songs.
func (s *PopHitsService) GeneratePlaylist(ctx context.Context, p GeneratorParams) ([]models.Song, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var songs []models.Song
	if err := s.get(ctx, s.generatorPrefix+"/generate-playlist/", p.Values(), &songs); err != nil {
		return nil, fmt.Errorf("generate playlist: %w", err)
	}
	return songs, nil
}

// GenerateQuiz asks the server for question/answer pairs built from a random selection of songs.
func (s *PopHitsService) GenerateQuiz(ctx context.Context, p GeneratorParams) ([]models.QuizQuestion, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	if err := s.get(ctx, s.generatorPrefix+"/generate-quiz/", p.Values(), &questions); err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	return questions, nil
}

// ParseGeneratorParams reads parameters encoded by [GeneratorParams.Values]. Missing values are left zero.
func ParseGeneratorParams(v url.Values) (GeneratorParams, error) {
	var p GeneratorParams
	var err error
	if p.NumberOfSongs, err = intParam(v, "number_of_songs"); err != nil {
		return p, err
	}
	if p.HitSize, err = intParam(v, "hit_size"); err != nil {
		return p, err
	}
	for _, raw := range v["decades"] {
		d, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return p, fmt.Errorf("%w: decades=%q", shared.ErrInvalidArgument, raw)
		}
		p.Decades = append(p.Decades, d)
	}
	return p, nil
}
