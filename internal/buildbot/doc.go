// Package buildbot is the REST client for the upstream build-orchestration
// service's data API (/api/v2). It exposes the generic Get query (path
// segments + limit/order/filter) and typed helpers for the four collections
// the dashboard needs: workers, builders, builds and changes.
//
// Every response is a JSON envelope holding a "meta" key plus exactly one
// named result set; anything else is a contract violation and fails the call.
// Transport and HTTP-status failures are fatal - there is no retry layer here,
// callers treat a failed call as a failed refresh.
package buildbot
