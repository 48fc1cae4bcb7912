package affinity

import (
	"math"
	"slices"
	"strings"
)

// Tagged is any record that carries zero or more genre labels.
type Tagged interface {
	GenreLabels() []string
}

// Labels adapts a plain label slice to Tagged.
type Labels []string

// GenreLabels implements Tagged.
func (l Labels) GenreLabels() []string { return l }

// Share is one genre's slice of a user's affinity profile.
type Share struct {
	Genre   string `json:"genre"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// GenreShares counts genre occurrences across items and expresses each as a
// rounded percentage of all occurrences. Results are sorted by descending
// percentage, then by descending count, then by first appearance.
func GenreShares[T Tagged](items []T) []Share {
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0
	for _, item := range items {
		labels := item.GenreLabels()
		for _, raw := range labels {
			label := strings.TrimSpace(raw)
			if label == "" {
				continue
			}
			if _, seen := counts[label]; !seen {
				order = append(order, label)
			}
			counts[label]++
			total++
		}
	}
	if total == 0 {
		return []Share{}
	}

	shares := make([]Share, 0, len(order))
	for _, label := range order {
		count := counts[label]
		shares = append(shares, Share{
			Genre:   label,
			Count:   count,
			Percent: int(math.Round(100 * float64(count) / float64(total))),
		})
	}
	slices.SortStableFunc(shares, func(a, b Share) int {
		if a.Percent != b.Percent {
			return b.Percent - a.Percent
		}
		return b.Count - a.Count
	})
	return shares
}
