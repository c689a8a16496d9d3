// Package logger provides structured logging on top of zerolog.
//
// The global logger is configured once from config.LoggingConfig and then
// used everywhere through GetLogger or the package-level helpers:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	logger.WithField("output", path).Info("Capture started")
//
// Components that are unit tested take a Logger explicitly so tests can pass
// NewTestLogger or NewNopLogger instead.
package logger
