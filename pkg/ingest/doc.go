// Package ingest decodes bulk submissions of captured posts.
//
// A submission is newline-delimited JSON, a single JSON object, or a JSON
// array of objects. Every record is checked against the canonical post
// shape and missing optional fields get their defaults. Records in the
// flat layout produced by earlier capture tools (tweet_id, full_text,
// author_screen_name and friends) are accepted as well.
//
// Decoding is all or nothing: the first invalid record rejects the whole
// submission with a validation error naming the record index.
package ingest
