package model

// Version constants for the mitigator wire schema and the library.
const (
	// SchemaVersion is the serialized mitigator record version.
	SchemaVersion = "1"

	// LibraryVersion is the mitigation library version.
	LibraryVersion = "0.1.0"
)
