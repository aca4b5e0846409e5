// Package api implements the read-only HTTP API of botdeck-server.
//
// New(svc) returns an http.Handler that serves:
//
//	GET /, /health                       "OK", or 503 once shutdown has begun
//	GET /bots                            paginated bots
//	GET /bots/:bid                       one bot; 404 if unknown
//	GET /bots/:bid/workers               paginated workers of a bot
//	GET /bots/:bid/logs                  paginated logs of a bot, oldest first
//	GET /bots/:bid/workers/:wid/logs     paginated logs of a worker, oldest first
//	GET /metrics                         Prometheus exposition, with WithMetrics
//
// List endpoints take ?page= and ?limit=. Invalid values are coerced, never
// rejected. Unknown routes get a JSON 404, wrong methods a JSON 405 and
// handler panics a JSON 500.
package api
