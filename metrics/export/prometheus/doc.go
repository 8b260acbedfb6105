// Package prometheus renders engine metrics in Prometheus text exposition
// format.
//
// The exporter is pull-based and dependency-free: it reads a
// MetricsSnapshot on each scrape and renders the exposition text by hand.
//
// # What this package must NOT do
//
//   - Mutate engine state.
//   - Cache snapshots between scrapes.
package prometheus
