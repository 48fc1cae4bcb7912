// Package affinity holds the pure scoring functions behind Marquee's
// recommendations and matching.
//
// GenreShares turns favorites (or any genre-tagged records) into a ranked
// percentage breakdown, TopGenres selects the genre ids that seed a
// recommendation request from positive reviews, and Cosine compares two
// embedding vectors on a 0..1 scale. All three are total over their inputs:
// missing or malformed entries are skipped and empty input produces an empty
// or zero result rather than an error.
package affinity
