// Package http provides the REST transport for the booking gateway.
//
// # Usage
//
//	transport := http.NewHTTPTransport(bookingService,
//	    http.WithAddr("0.0.0.0:8000"),
//	    http.WithLogger(logger),
//	    http.WithRateLimit(limiter, ratelimit.PerMinute(100)),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	POST /flights/availability     - Search flights; starts a new search id
//	POST /flights/init             - Open a backend session; starts a new search id
//	POST /flights/add              - Add a flight to the search's session
//	POST /flights/booking-session  - Read the session's booking
//	POST /flights/save             - Commit the booking
//	POST /flights/itinerary        - Fetch a saved booking's itinerary
//	GET  /health                   - Component health
//	GET  /metrics                  - Prometheus metrics
//
// # Errors
//
// Failures are JSON bodies {"error", "message", "details"}:
//
//	400 BAD_REQUEST          - body is not valid JSON
//	422 VALIDATION_ERROR     - required fields missing or out of range
//	429 RATE_LIMIT_EXCEEDED  - per-IP limit reached; see Retry-After
//	503 SERVICE_UNAVAILABLE  - reservation backend unreachable or non-2xx
//	500 INTERNAL_ERROR       - anything else
//
// # Middleware Chain
//
//  1. MetricsMiddleware - request count and duration
//  2. RequestIDMiddleware - X-Request-ID and request logger
//  3. RealIPMiddleware - client IP from proxy headers
//  4. AccessLogMiddleware - request and response log lines
//  5. RateLimitMiddleware - per-IP GCRA limit
package http
