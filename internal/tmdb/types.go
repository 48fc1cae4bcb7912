package tmdb

import (
	"fmt"
	"strconv"
	"strings"
)

// Media types accepted by the TMDB endpoints.
const (
	MediaMovie  = "movie"
	MediaTV     = "tv"
	MediaPerson = "person"
	MediaAll    = "all"
)

// NormalizeMediaType lowercases value and accepts only movie or tv.
func NormalizeMediaType(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case MediaMovie, MediaTV:
		return v, nil
	default:
		return "", fmt.Errorf("media type %q must be movie or tv", value)
	}
}

// Genre is one entry of the TMDB genre catalogue.
type Genre struct {
	ID   int    `json:"id" validate:"gt=0"`
	Name string `json:"name"`
}

// Result represents a single TMDB title or person record.
type Result struct {
	ID                 int64   `json:"id" validate:"gt=0"`
	Title              string  `json:"title,omitempty"`
	Name               string  `json:"name,omitempty"`
	Overview           string  `json:"overview,omitempty"`
	ReleaseDate        string  `json:"release_date,omitempty"`
	FirstAirDate       string  `json:"first_air_date,omitempty"`
	MediaType          string  `json:"media_type,omitempty" validate:"omitempty,oneof=movie tv person"`
	Popularity         float64 `json:"popularity" validate:"gte=0"`
	VoteAverage        float64 `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount          int64   `json:"vote_count" validate:"gte=0"`
	PosterPath         string  `json:"poster_path,omitempty"`
	ProfilePath        string  `json:"profile_path,omitempty"`
	GenreIDs           []int   `json:"genre_ids,omitempty"`
	Genres             []Genre `json:"genres,omitempty" validate:"dive"`
	Runtime            int     `json:"runtime,omitempty"`
	NumberOfSeasons    int     `json:"number_of_seasons,omitempty"`
	KnownForDepartment string  `json:"known_for_department,omitempty"`
}

// DisplayTitle returns the movie title or the show/person name.
func (r Result) DisplayTitle() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return strings.TrimSpace(r.Name)
}

// Date returns the release date for movies or the first air date for shows.
func (r Result) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// Year parses the leading year of Date.
func (r Result) Year() (int, bool) {
	date := strings.TrimSpace(r.Date())
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// AllGenreIDs merges list-style genre_ids and detail-style genres without duplicates.
func (r Result) AllGenreIDs() []int {
	out := make([]int, 0, len(r.GenreIDs)+len(r.Genres))
	seen := make(map[int]struct{}, cap(out))
	add := func(id int) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range r.GenreIDs {
		add(id)
	}
	for _, g := range r.Genres {
		add(g.ID)
	}
	return out
}

// GenreNames returns the labels embedded in a details payload.
func (r Result) GenreNames() []string {
	out := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Response models a TMDB paginated list response.
type Response struct {
	Page         int      `json:"page" validate:"gte=0"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages" validate:"gte=0"`
	TotalResults int      `json:"total_results" validate:"gte=0"`
}

// Person captures TMDB person details.
type Person struct {
	ID                 int64   `json:"id" validate:"gt=0"`
	Name               string  `json:"name" validate:"required"`
	Biography          string  `json:"biography,omitempty"`
	Birthday           string  `json:"birthday,omitempty"`
	Deathday           string  `json:"deathday,omitempty"`
	PlaceOfBirth       string  `json:"place_of_birth,omitempty"`
	ProfilePath        string  `json:"profile_path,omitempty"`
	KnownForDepartment string  `json:"known_for_department,omitempty"`
	Popularity         float64 `json:"popularity" validate:"gte=0"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres" validate:"dive"`
}
