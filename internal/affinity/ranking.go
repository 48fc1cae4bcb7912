package affinity

import (
	"slices"
	"strings"
)

// SentimentPositive is the only sentiment label that contributes weight.
const SentimentPositive = "positive"

// ReviewSignal is the subset of a review the genre ranking reads.
type ReviewSignal struct {
	ContentType    string
	Sentiment      string
	SentimentScore *float64
	GenreIDs       []int
}

// GenreWeight is a genre id with its accumulated sentiment weight.
type GenreWeight struct {
	GenreID int     `json:"genre_id"`
	Weight  float64 `json:"weight"`
}

// RankGenres accumulates sentiment weight per genre across positive reviews of
// the requested content type. A missing score counts as 1. The result is
// sorted by descending weight with ties kept in first-appearance order.
func RankGenres(reviews []ReviewSignal, contentType string) []GenreWeight {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	weights := make(map[int]float64)
	order := make([]int, 0)
	for _, review := range reviews {
		if !strings.EqualFold(strings.TrimSpace(review.Sentiment), SentimentPositive) {
			continue
		}
		if strings.ToLower(strings.TrimSpace(review.ContentType)) != contentType {
			continue
		}
		score := 1.0
		if review.SentimentScore != nil {
			score = *review.SentimentScore
		}
		for _, id := range review.GenreIDs {
			if _, seen := weights[id]; !seen {
				order = append(order, id)
			}
			weights[id] += score
		}
	}

	ranked := make([]GenreWeight, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, GenreWeight{GenreID: id, Weight: weights[id]})
	}
	slices.SortStableFunc(ranked, func(a, b GenreWeight) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		default:
			return 0
		}
	})
	return ranked
}

// TopGenres returns at most n genre ids from RankGenres.
func TopGenres(reviews []ReviewSignal, contentType string, n int) []int {
	if n <= 0 {
		return []int{}
	}
	ranked := RankGenres(reviews, contentType)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	ids := make([]int, 0, len(ranked))
	for _, entry := range ranked {
		ids = append(ids, entry.GenreID)
	}
	return ids
}
