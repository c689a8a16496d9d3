// Package checkpoint marks capture output files as complete.
//
// A capture truncates or appends to its NDJSON file while it runs, so the
// file alone does not say whether the session ended on its own. The
// capture removes any previous checkpoint when it starts and writes a new
// one, atomically, when the session terminates. Ingestion consults it to
// warn about partial captures.
package checkpoint
