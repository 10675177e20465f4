// Package services implements the driving port interfaces.
// Services contain the retrieval pipeline logic and orchestrate calls to
// driven ports (adapters): embedding gateway, retriever, reranker,
// answer generator, and the ingest and query orchestrations.
//
// Every stage consults its own cache namespace before doing work and
// populates it afterwards (cache-aside). Cache failures are never fatal:
// a read or write error is treated as a miss and the stage recomputes.
//
// Services are pure Go with no external dependencies.
package services
