// Package storage manages the capture output directory.
//
// A capture writes its records through a Stream: newline-delimited JSON,
// one record per unbuffered write, so the file stays line-valid if the
// process is killed. Side files such as the first response sample are
// written with WriteFileAtomic (temporary file, sync, rename).
//
// Usage:
//
//	manager, err := storage.NewManager("./out")
//	if err != nil {
//		return err
//	}
//	stream, err := manager.OpenStream("bookmarks.ndjson", false)
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//	_ = stream.Append(post)
package storage
