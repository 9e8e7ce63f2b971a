// Package adapter contains the per-site extraction rules for the listing
// portals the crawler polls, plus the registry that resolves the adapter id
// a target names.
package adapter
