// Package metrics defines the process's Prometheus collectors: refresh
// outcomes and durations, upstream request counts per endpoint, and result
// cache lookup outcomes. Collectors register on the default registry via
// promauto; Handler exposes them for scraping.
package metrics
