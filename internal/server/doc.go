// Package server exposes the analysis pipeline over HTTP with gin. It streams uploads to
// per-request temp files under the size limit, maps pipeline errors to status codes and
// serves the health, configuration, statistics and Prometheus endpoints.
package server
