// Package api hosts the operations HTTP server. Routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/rounds/last for the most recent round report.
//   - GET /v1/targets for the targets crawled each round.
package api
