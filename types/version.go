package types

// Version is the canonical project version.
// The CLI, the stored record schema and the completion event share this
// version.
const Version = "0.3.0"

// RecordSchemaVersion is the schema version written into stored records
// and completion events. It moves in lockstep with Version.
const RecordSchemaVersion = Version
