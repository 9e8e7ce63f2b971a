// Package crawler defines the domain types and small interfaces shared by the
// fetchers, adapters, round executor, reconciliation, geocoding and publishers
// of the flat crawler.
package crawler
