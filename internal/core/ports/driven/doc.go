// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The retrieval pipeline only sees these capabilities, never concrete
// model clients or stores. Every external collaborator (embedding model,
// cross-encoder, generative model, cache store, vector index, ingestion
// ledger) is modelled as an interface so the pipeline is testable with
// deterministic fakes.
package driven
