// Package store keeps ingested posts in an embedded SQLite database.
//
// Posts live in one table keyed by id. Flat fields are columns and nested
// structures (links, media, the quoted post, reply references) are stored
// as JSON text. Ingesting a batch is a single transaction that upserts
// every record with a full overwrite, so re-ingesting the same capture is
// a no-op and a newer version of a post replaces the old one entirely.
//
// A separate groups table holds classification labels. Posts are assigned
// to at most one group, and the group tables are only read by listing and
// statistics queries.
package store
