// Package capture turns a live stream of GraphQL responses into a
// deduplicated NDJSON record stream.
//
// Session is the pure state machine: it is fed responses and clock ticks,
// each carrying a timestamp, and reports new records and the Active, Idle
// or Terminated state. Runner wires a Session to a Source (the browser)
// and a RecordSink (the output file) on one goroutine, nudging the source
// at a fixed interval until the session has been idle for the threshold.
package capture
