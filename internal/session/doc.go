// Package session carries the authenticated caller through a request.
//
// The server obtains a Session by verifying the bearer token minted by the
// hosted auth provider (HS256, `sub` is the user id). The CLI constructs one
// directly from its --user flag. Either way the Session travels explicitly in
// the context.Context handed to downstream services; there is no global
// current-user state.
package session
