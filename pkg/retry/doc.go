// Package retry runs operations that can fail transiently, such as
// connecting to a browser that is still starting up.
//
// Only errors of type transport are retried by default:
//
//	b, err := retry.DoWithResult(ctx, func() (*rod.Browser, error) {
//		return connect(url)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Logger:      log,
//	})
package retry
