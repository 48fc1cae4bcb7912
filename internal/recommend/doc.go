// Package recommend turns a user's favorites and reviews into a genre
// affinity profile and a list of suggested titles.
//
// Affinity counts genre labels across favorites and positively reviewed
// titles and caches the result as a snapshot. Recommend seeds a discover
// query with the genres the user reviewed most positively, falling back to
// trending titles when there is no signal, and drops anything the user has
// already favorited or reviewed.
package recommend
