package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"

	"marquee/internal/tmdb"
)

// Question kinds.
const (
	KindReleaseYear   = "release_year"
	KindHighestRating = "highest_rating"
)

const (
	choicesPerQuestion = 4
	earliestYear       = 1888
	ratingAttempts     = 3
)

// Trender lists trending titles a page at a time.
type Trender interface {
	Trending(ctx context.Context, mediaType, window string, page int) (*tmdb.Response, error)
}

// Pool gathers up to pages pages of this week's trending titles as quiz
// material. A failure after the first page keeps what was gathered.
func Pool(ctx context.Context, src Trender, mediaType string, pages int) ([]tmdb.Result, error) {
	var records []tmdb.Result
	for page := 1; page <= max(pages, 1); page++ {
		resp, err := src.Trending(ctx, mediaType, tmdb.WindowWeek, page)
		if err != nil {
			if len(records) > 0 {
				break
			}
			return nil, err
		}
		records = append(records, resp.Results...)
		if resp.TotalPages <= page {
			break
		}
	}
	return records, nil
}

// Question is one multiple-choice question. Answer is the index of the
// correct choice.
type Question struct {
	ID      string   `json:"id" validate:"required"`
	Kind    string   `json:"kind,omitempty"`
	Prompt  string   `json:"prompt" validate:"required"`
	Choices []string `json:"choices" validate:"min=2,dive,required"`
	Answer  int      `json:"answer" validate:"gte=0"`
}

// Build returns up to n questions drawn from records. Every third question
// asks which title rates highest when enough rated records exist; the rest
// ask for release years. Records without a title, and records without a
// parseable date for year questions, are skipped.
func Build(records []tmdb.Result, n int, seed uint64) []Question {
	if n <= 0 {
		return []Question{}
	}
	pool := usable(records)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rated := ratedRecords(pool)

	questions := make([]Question, 0, n)
	next := func() string { return "q" + strconv.Itoa(len(questions)+1) }

	for _, idx := range rng.Perm(len(pool)) {
		if len(questions) >= n {
			break
		}
		if len(questions)%3 == 2 {
			if q, ok := ratingQuestion(rng, rated, next()); ok {
				questions = append(questions, q)
				if len(questions) >= n {
					break
				}
			}
		}
		if q, ok := yearQuestion(rng, pool[idx], next()); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func usable(records []tmdb.Result) []tmdb.Result {
	out := make([]tmdb.Result, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.MediaType == tmdb.MediaPerson || r.DisplayTitle() == "" {
			continue
		}
		key := r.MediaType + ":" + strconv.FormatInt(r.ID, 10)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func ratedRecords(pool []tmdb.Result) []tmdb.Result {
	out := make([]tmdb.Result, 0, len(pool))
	for _, r := range pool {
		if r.VoteCount > 0 {
			out = append(out, r)
		}
	}
	return out
}

func yearQuestion(rng *rand.Rand, r tmdb.Result, id string) (Question, bool) {
	year, ok := r.Year()
	if !ok || year < earliestYear {
		return Question{}, false
	}
	years := []int{year}
	for len(years) < choicesPerQuestion {
		offset := rng.IntN(7) - 3
		candidate := year + offset
		if offset == 0 || candidate < earliestYear || slices.Contains(years, candidate) {
			continue
		}
		years = append(years, candidate)
	}
	rng.Shuffle(len(years), func(i, j int) { years[i], years[j] = years[j], years[i] })

	choices := make([]string, len(years))
	answer := 0
	for i, y := range years {
		choices[i] = strconv.Itoa(y)
		if y == year {
			answer = i
		}
	}
	verb := "released"
	if r.Title == "" {
		verb = "first aired"
	}
	return Question{
		ID:      id,
		Kind:    KindReleaseYear,
		Prompt:  fmt.Sprintf("In which year was %s %s?", r.DisplayTitle(), verb),
		Choices: choices,
		Answer:  answer,
	}, true
}

func ratingQuestion(rng *rand.Rand, rated []tmdb.Result, id string) (Question, bool) {
	if len(rated) < choicesPerQuestion {
		return Question{}, false
	}
	for range ratingAttempts {
		picks := rng.Perm(len(rated))[:choicesPerQuestion]
		best, unique := -1, true
		for i, p := range picks {
			switch {
			case best < 0 || rated[p].VoteAverage > rated[picks[best]].VoteAverage:
				best, unique = i, true
			case rated[p].VoteAverage == rated[picks[best]].VoteAverage:
				unique = false
			}
		}
		if !unique {
			continue
		}
		choices := make([]string, len(picks))
		for i, p := range picks {
			choices[i] = rated[p].DisplayTitle()
		}
		if hasDuplicateText(choices) {
			continue
		}
		return Question{
			ID:      id,
			Kind:    KindHighestRating,
			Prompt:  "Which of these titles has the highest TMDB rating?",
			Choices: choices,
			Answer:  best,
		}, true
	}
	return Question{}, false
}

func hasDuplicateText(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := fold(v)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}
