// Package registry builds and holds the immutable step graph of a journey.
//
// Construction validates the whole graph up front (ids, entry point, destinations,
// prerequisites, handler bindings) so that misconfiguration fails at start-up
// instead of at the first request that reaches it.
package registry
