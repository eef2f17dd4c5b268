// Package dashboard owns the result cache: a single time-windowed slot
// holding the last successfully rendered context. Requests inside the window
// are served from the slot with zero upstream traffic; a miss, expiry or
// explicit refresh triggers exactly one recomputation, shared by every caller
// that arrives while it is in flight.
package dashboard
