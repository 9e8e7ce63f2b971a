// Package main hosts the flatcrawler entrypoint.
//
// Architecture overview:
//   - Rounds: internal/round.Runner loads the targets, hands them to the dispatcher, drops incomplete
//     records, reconciles against the previous round, geocodes what is new and publishes it. Only the
//     previous round is remembered, in memory.
//   - Dispatcher & queue: each round fills a bounded in-memory queue with every target and fans it out
//     to a fixed worker pool sized by crawler.workers. The round ends when the queue is drained and every
//     worker has returned.
//   - Fetch pipeline: workers fetch through the Colly-based fetcher, or the chromedp fetcher for targets
//     marked headless, decode the body from the target's charset, parse it with goquery and run the
//     site adapter on every entry-point node. A node that fails extraction is dropped alone.
//   - Fanout: records go to every configured transport (stdout, RabbitMQ, Pub/Sub, Redis, MongoDB,
//     Postgres, Cloud Storage, local files) as the same JSON payload.
//   - Configuration & plumbing: Viper populates config from env/files (FLATCRAWLER_ prefix); zap provides
//     structured logging; Prometheus metrics are exported on /metrics of the operations server.
//
// Operational notes:
//   - Politeness: a per-host token bucket spaces requests; geocoding has its own limiter because
//     Nominatim allows one request per second.
//   - Shutdown: SIGINT/SIGTERM cancels the loop between or during rounds; an interrupted round keeps
//     the previous state and publishes nothing.
//
// Quick checklist:
//   - Run locally: go run ./cmd/flatcrawler crawl --config config.yaml --dry-run
//   - Single round, everything published: go run ./cmd/flatcrawler once
//   - See what is crawled: go run ./cmd/flatcrawler targets
package main
