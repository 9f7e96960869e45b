// Package thumbnail generates bounded-memory thumbnails for the
// picker.
//
// Video frames are extracted already downscaled: the primary extractor
// asks ffmpeg to scale during decode, and the legacy fallback decodes
// a fixed mini frame that is then software-scaled. Neither path ever
// materializes a full-resolution frame, which is the invariant that
// keeps peak allocation proportional to the thumbnail bound instead of
// the source resolution.
//
// Generate never returns an error. Unreadable references, decode
// failures, and write failures all collapse to the empty path, and the
// caller renders a placeholder.
package thumbnail
