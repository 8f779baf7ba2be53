// Package api hosts the HTTP server, middleware, and JSON handlers.
// Routes:
//   - GET / welcome message.
//   - POST /init reindexes the catalog and reports the collected count.
//   - GET /books?category= and GET /categories query the item store.
//   - GET /headlines?pages= returns ranked news headlines.
//   - GET /runs and GET /runs/{runID} report recorded crawl runs.
//   - GET /healthz and /readyz for probes; /readyz pings the store.
//   - GET /metrics for Prometheus scraping.
package api
