// Package ratelimit provides sliding-window request admission control.
//
// The algorithm keeps exact request timestamps per key rather than
// bucketed counters, so the window slides continuously. A denied
// attempt is never recorded; only admitted requests consume budget.
// State lives behind the store.Store interface so the in-memory
// backend can be swapped without touching the limiter.
package ratelimit
