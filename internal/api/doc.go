// Package api serves the marquee HTTP API.
//
// Routes live under /api/v1 and speak JSON. Catalogue routes (trending,
// search, titles, genres) and health are public; everything that reads or
// writes a user's favorites, reviews, posts or recommendations requires a
// bearer token, which the authenticate middleware turns into a
// session.Session in the request context.
//
// # Errors
//
// Every failure is rendered as {"error": {"code", "message"}} with the
// status derived from the error's classification in the services package:
// validation 400, missing or bad token 401, foreign resource 403, unknown
// resource 404, provider failures 502 and an open circuit breaker 503.
// Internal failures never leak their message.
//
// # Middleware
//
// Request ids (uuid, echoed in X-Request-ID), real client IP, panic
// recovery, CORS, per-IP rate limiting and Prometheus request metrics are
// applied in that order. /metrics exposes the Prometheus registry.
package api
