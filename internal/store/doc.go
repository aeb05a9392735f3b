// Package store provides durable storage for fitted mitigators.
//
// A mitigator is saved as its versioned JSON record together with its
// canonical-JSON content fingerprint. Saving is idempotent on the
// fingerprint: re-saving an identical model returns the existing record ID
// instead of inserting a duplicate. SQLite runs in WAL mode so fitted
// models can be read concurrently while new fits are saved.
package store
