// Package store defines the boundaries between the projection engine and the
// stores it reads from and writes to.
//
// # Architecture
//
// The relational record store is the system of record. Every other store is a
// derived projection that can be rebuilt from it at any time:
//
//   - RecordSource: read-only access to the record store (typed SourceRows)
//   - DocumentStore: denormalized documents keyed by a derived key
//   - GraphStore: nodes unique per business key and edges unique per endpoint pair
//   - PartitionedStore: documents bucketed by owner and day for point lookups
//   - Cache and Ranking: single-key hot reads and sorted activity scores
//
// Implementations live next to their drivers (services/projector/internal/target)
// and an in-memory set lives in the memstore subpackage.
//
// # Upsert semantics
//
// Writes always go through an idempotent upsert that reports an UpsertOutcome:
// OutcomeInserted when nothing existed at the key, OutcomeUpdated when a
// different value was replaced and OutcomeUnchanged when the stored value was
// already identical. Repeating a write with identical input never creates a
// second entry at the same key.
//
// # Error Handling
//
// Store-level connectivity failures are reported as ErrSourceUnavailable or
// ErrTargetUnavailable and abort the operation that hit them. Failures scoped
// to a single row (mapping errors, timeouts, lost races) are ordinary errors
// that callers absorb into per-row results:
//
//	if store.IsTargetUnavailable(err) {
//	    return result, err
//	}
//
// # Thread Safety
//
// All implementations must be safe for concurrent use by multiple goroutines.
package store
