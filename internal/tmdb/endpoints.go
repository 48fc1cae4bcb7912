package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"marquee/internal/services"
	"marquee/internal/validation"
)

// Trending time windows.
const (
	WindowDay  = "day"
	WindowWeek = "week"
)

// Search kinds.
const (
	SearchMulti  = "multi"
	SearchMovie  = "movie"
	SearchTV     = "tv"
	SearchPerson = "person"
)

// DiscoverOptions narrows a discover request.
type DiscoverOptions struct {
	GenreIDs []int
	SortBy   string
	Page     int
}

// Trending lists trending titles for mediaType (movie, tv, person, or all)
// over window (day or week).
func (c *Client) Trending(ctx context.Context, mediaType, window string, page int) (*Response, error) {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		mediaType = MediaAll
	}
	switch mediaType {
	case MediaMovie, MediaTV, MediaPerson, MediaAll:
	default:
		return nil, services.Wrap(services.ErrValidation, "tmdb", "trending", fmt.Sprintf("unsupported media type %q", mediaType), nil)
	}
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		window = WindowWeek
	}
	if window != WindowDay && window != WindowWeek {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "trending", fmt.Sprintf("unsupported window %q", window), nil)
	}
	params := pageParams(page)
	resp, err := c.list(ctx, "trending", fmt.Sprintf("/trending/%s/%s", mediaType, window), params)
	if err != nil {
		return nil, err
	}
	fillMediaType(resp, mediaType)
	return resp, nil
}

// Search queries TMDB. kind is multi, movie, tv, or person.
func (c *Client) Search(ctx context.Context, kind, query string, page int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = SearchMulti
	}
	switch kind {
	case SearchMulti, SearchMovie, SearchTV, SearchPerson:
	default:
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", fmt.Sprintf("unsupported search kind %q", kind), nil)
	}
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")
	resp, err := c.list(ctx, "search_"+kind, "/search/"+kind, params)
	if err != nil {
		return nil, err
	}
	if kind != SearchMulti {
		fillMediaType(resp, kind)
	}
	return resp, nil
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	return c.details(ctx, MediaMovie, movieID)
}

// TVDetails fetches TV show details by TMDB ID.
func (c *Client) TVDetails(ctx context.Context, showID int64) (*Result, error) {
	return c.details(ctx, MediaTV, showID)
}

// Details fetches movie or TV details depending on mediaType.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*Result, error) {
	normalized, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "details", err.Error(), nil)
	}
	return c.details(ctx, normalized, id)
}

func (c *Client) details(ctx context.Context, mediaType string, id int64) (*Result, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", mediaType+"_details", "id must be positive", nil)
	}
	var payload Result
	if err := c.get(ctx, mediaType+"_details", fmt.Sprintf("/%s/%d", mediaType, id), nil, &payload); err != nil {
		return nil, err
	}
	payload.MediaType = mediaType
	if err := validation.Struct(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "tmdb", mediaType+"_details", "invalid payload", err)
	}
	return &payload, nil
}

// Discover lists movie or TV titles matching any of the supplied genres,
// most popular first unless opts.SortBy says otherwise.
func (c *Client) Discover(ctx context.Context, mediaType string, opts DiscoverOptions) (*Response, error) {
	normalized, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "discover", err.Error(), nil)
	}
	params := pageParams(opts.Page)
	sortBy := strings.TrimSpace(opts.SortBy)
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)
	params.Set("include_adult", "false")
	if len(opts.GenreIDs) > 0 {
		ids := make([]string, 0, len(opts.GenreIDs))
		for _, id := range opts.GenreIDs {
			if id > 0 {
				ids = append(ids, strconv.Itoa(id))
			}
		}
		// "|" is OR in TMDB filters; "," would require every genre.
		params.Set("with_genres", strings.Join(ids, "|"))
	}
	if c.region != "" {
		params.Set("region", c.region)
	}
	resp, err := c.list(ctx, "discover_"+normalized, "/discover/"+normalized, params)
	if err != nil {
		return nil, err
	}
	fillMediaType(resp, normalized)
	return resp, nil
}

// GenreList returns the official genre list for movie or tv.
func (c *Client) GenreList(ctx context.Context, mediaType string) ([]Genre, error) {
	normalized, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "genres", err.Error(), nil)
	}
	var payload genreListResponse
	if err := c.get(ctx, "genres_"+normalized, "/genre/"+normalized+"/list", nil, &payload); err != nil {
		return nil, err
	}
	if err := validation.Struct(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "tmdb", "genres", "invalid payload", err)
	}
	return payload.Genres, nil
}

// Person fetches person details by TMDB ID.
func (c *Client) Person(ctx context.Context, personID int64) (*Person, error) {
	if personID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "person", "id must be positive", nil)
	}
	var payload Person
	if err := c.get(ctx, "person", fmt.Sprintf("/person/%d", personID), nil, &payload); err != nil {
		return nil, err
	}
	if err := validation.Struct(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "tmdb", "person", "invalid payload", err)
	}
	return &payload, nil
}

// Ping verifies the API key against the configuration endpoint. It bypasses
// the response cache.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.execute(ctx, "configuration", "/configuration", url.Values{})
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("tmdb rejected the api key: %w", err)
	}
	return err
}

func (c *Client) list(ctx context.Context, endpoint, path string, params url.Values) (*Response, error) {
	var payload Response
	if err := c.get(ctx, endpoint, path, params, &payload); err != nil {
		return nil, err
	}
	if err := validation.Struct(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "tmdb", endpoint, "invalid payload", err)
	}
	c.sanitize(endpoint, &payload)
	return &payload, nil
}

func pageParams(page int) url.Values {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return params
}

func fillMediaType(resp *Response, mediaType string) {
	if mediaType != MediaMovie && mediaType != MediaTV && mediaType != MediaPerson {
		return
	}
	for i := range resp.Results {
		if resp.Results[i].MediaType == "" {
			resp.Results[i].MediaType = mediaType
		}
	}
}
