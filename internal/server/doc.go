// Package server exposes the page index over HTTP.
//
// Routes:
//   - GET /                 a minimal search page
//   - GET /search           {"results": [page ids]} for ?searchTerm= (or ?q=)
//   - GET /pages/{id}       the stored text of one page
//   - GET /status           progress of a crawl started by serve --crawl
//   - GET /healthz          liveness
//   - GET /metrics          Prometheus metrics
//
// The search response shape and the searchTerm parameter are kept stable
// for existing front ends.
package server
