// Package ratelimit throttles work that arrives faster than it should be
// accepted. The HTTP server uses a TokenBucket to bound how many ingestion
// batches a client can submit per minute.
//
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if !limiter.Allow() {
//		// reject, and tell the caller to come back after limiter.RetryAfter()
//	}
package ratelimit
