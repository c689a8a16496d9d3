// Package server is the HTTP surface over the post store: bulk ingestion
// plus the read-only stats, group and post listings.
package server
