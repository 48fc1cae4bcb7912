package affinity

import (
	"slices"
	"testing"
)

func score(v float64) *float64 { return &v }

func TestTopGenresExcludesNonPositive(t *testing.T) {
	reviews := []ReviewSignal{
		{ContentType: "movie", Sentiment: "positive", SentimentScore: score(0.9), GenreIDs: []int{28, 12}},
		{ContentType: "movie", Sentiment: "negative", GenreIDs: []int{18}},
	}
	got := TopGenres(reviews, "movie", 3)
	if !slices.Equal(got, []int{28, 12}) {
		t.Fatalf("TopGenres() = %v, want [28 12]", got)
	}
}

func TestTopGenresWeighting(t *testing.T) {
	reviews := []ReviewSignal{
		{ContentType: "movie", Sentiment: "positive", SentimentScore: score(0.2), GenreIDs: []int{35}},
		{ContentType: "movie", Sentiment: "positive", GenreIDs: []int{18, 35}},
		{ContentType: "tv", Sentiment: "positive", SentimentScore: score(1), GenreIDs: []int{10765}},
		{ContentType: "movie", Sentiment: "", GenreIDs: []int{99}},
		{ContentType: "movie", Sentiment: "positive", SentimentScore: score(0.5), GenreIDs: []int{18}},
	}
	ranked := RankGenres(reviews, "movie")
	want := []GenreWeight{{GenreID: 18, Weight: 1.5}, {GenreID: 35, Weight: 1.2}}
	if len(ranked) != len(want) {
		t.Fatalf("RankGenres() = %#v, want %#v", ranked, want)
	}
	for i := range want {
		if ranked[i].GenreID != want[i].GenreID || abs(ranked[i].Weight-want[i].Weight) > 1e-9 {
			t.Errorf("ranked[%d] = %#v, want %#v", i, ranked[i], want[i])
		}
	}
	if got := TopGenres(reviews, "movie", 1); !slices.Equal(got, []int{18}) {
		t.Fatalf("TopGenres(n=1) = %v, want [18]", got)
	}
	if got := TopGenres(reviews, "tv", 5); !slices.Equal(got, []int{10765}) {
		t.Fatalf("TopGenres(tv) = %v, want [10765]", got)
	}
}

func TestTopGenresBounds(t *testing.T) {
	reviews := []ReviewSignal{
		{ContentType: "movie", Sentiment: "positive", GenreIDs: []int{1, 2, 3, 4, 5}},
	}
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"negative", -2, 0},
		{"fewer than available", 2, 2},
		{"more than available", 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TopGenres(reviews, "movie", tt.n); len(got) != tt.want {
				t.Fatalf("TopGenres(n=%d) returned %d ids, want %d", tt.n, len(got), tt.want)
			}
		})
	}
}

func TestTopGenresTiesFollowInputOrder(t *testing.T) {
	reviews := []ReviewSignal{
		{ContentType: "movie", Sentiment: "positive", GenreIDs: []int{80, 53, 9648}},
	}
	for i := 0; i < 5; i++ {
		if got := TopGenres(reviews, "movie", 3); !slices.Equal(got, []int{80, 53, 9648}) {
			t.Fatalf("TopGenres() = %v, want input order", got)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
