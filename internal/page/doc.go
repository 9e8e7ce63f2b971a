// Package page turns a target into candidate listing nodes: it fetches the
// page, decodes the body with the target's declared encoding, parses it into
// a document tree and applies the adapter's entry-point selector.
package page
