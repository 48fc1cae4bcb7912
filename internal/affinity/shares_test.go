package affinity

import (
	"math/rand/v2"
	"testing"
)

func TestGenreSharesEmpty(t *testing.T) {
	if got := GenreShares([]Labels{}); len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if got := GenreShares([]Labels{nil, {}, {"  "}}); len(got) != 0 {
		t.Fatalf("expected empty result for label-less items, got %#v", got)
	}
}

func TestGenreSharesOrdering(t *testing.T) {
	items := []Labels{
		{"Drama", "Action"},
		{"Action"},
		{"Action", "Comedy"},
		nil,
	}
	got := GenreShares(items)
	want := []Share{
		{Genre: "Action", Count: 3, Percent: 60},
		{Genre: "Drama", Count: 1, Percent: 20},
		{Genre: "Comedy", Count: 1, Percent: 20},
	}
	if len(got) != len(want) {
		t.Fatalf("GenreShares() = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("share[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestGenreSharesEqualPercentOrdersByCount(t *testing.T) {
	// 1/200 and 2/200 both round to 1%.
	items := []Labels{{"Western"}, {"Musical"}, {"Musical"}}
	for i := 0; i < 197; i++ {
		items = append(items, Labels{"Drama"})
	}
	got := GenreShares(items)
	want := []Share{
		{Genre: "Drama", Count: 197, Percent: 99},
		{Genre: "Musical", Count: 2, Percent: 1},
		{Genre: "Western", Count: 1, Percent: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("GenreShares() = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("share[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestGenreSharesRounding(t *testing.T) {
	got := GenreShares([]Labels{{"Horror", "Thriller", "Mystery"}})
	for _, share := range got {
		if share.Percent != 33 {
			t.Errorf("%s percent = %d, want 33", share.Genre, share.Percent)
		}
	}
}

func TestGenreSharesSumToHundred(t *testing.T) {
	pool := []string{"Action", "Adventure", "Animation", "Comedy", "Crime", "Drama", "Family", "Horror"}
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		items := make([]Labels, rng.IntN(12)+1)
		for i := range items {
			n := rng.IntN(4)
			for j := 0; j < n; j++ {
				items[i] = append(items[i], pool[rng.IntN(len(pool))])
			}
		}
		shares := GenreShares(items)
		if len(shares) == 0 {
			continue
		}
		sum := 0
		for i, share := range shares {
			if share.Percent < 0 {
				t.Fatalf("trial %d: negative percent %#v", trial, share)
			}
			if i > 0 && shares[i-1].Percent < share.Percent {
				t.Fatalf("trial %d: not sorted descending: %#v", trial, shares)
			}
			sum += share.Percent
		}
		if diff := sum - 100; diff > len(shares) || diff < -len(shares) {
			t.Fatalf("trial %d: percent sum %d outside rounding tolerance for %d genres", trial, sum, len(shares))
		}
	}
}
