// Package workers sizes the decode worker pool.
//
// Video frame extraction used to be fire-and-forget, one goroutine per
// request, which under fast scrolling meant unbounded concurrent
// ffmpeg processes. The pool is instead sized from GOMAXPROCS with an
// optional DECODE_WORKERS override and a hard cap supplied by the
// caller.
package workers
