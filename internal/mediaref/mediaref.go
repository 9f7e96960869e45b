package mediaref

import (
	"path"
	"path/filepath"
	"strings"
)

// Kind identifies how a media reference addresses its content.
// It is decided exactly once, when the raw string is parsed.
type Kind string

const (
	// KindLocalFile is a plain filesystem path (file:// prefix stripped).
	KindLocalFile Kind = "local"
	// KindContentURI is a content-resolver style URI (content://...).
	KindContentURI Kind = "content"
	// KindRemoteURL is an http(s) URL.
	KindRemoteURL Kind = "remote"
)

// Media represents the display category of a reference.
type Media string

const (
	// MediaImage is anything displayable through the general image path.
	MediaImage Media = "image"
	// MediaVideo is an original video that must never be decoded at
	// full resolution; it gets the generated-thumbnail treatment.
	MediaVideo Media = "video"
)

// ThumbDirMarker is the path segment of the directory generated
// thumbnails are written to. References inside it are always treated
// as images so thumbnails are never re-derived from thumbnails.
const ThumbDirMarker = ".picker-thumbs"

// VideoExtensions maps file extensions to whether they are treated as video.
var VideoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".mpeg": true, ".mpg": true, ".3gp": true, ".ts": true,
}

// ImageExtensions maps file extensions to whether they are treated as images.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".heic": true, ".heif": true,
	".tiff": true, ".tif": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".bmp": "image/bmp", ".webp": "image/webp",
	".heic": "image/heic", ".heif": "image/heif",
	".tiff": "image/tiff", ".tif": "image/tiff",
	".mp4": "video/mp4", ".mkv": "video/x-matroska", ".avi": "video/x-msvideo",
	".mov": "video/quicktime", ".wmv": "video/x-ms-wmv", ".flv": "video/x-flv",
	".webm": "video/webm", ".m4v": "video/x-m4v", ".mpeg": "video/mpeg",
	".mpg": "video/mpeg", ".3gp": "video/3gpp", ".ts": "video/mp2t",
}

// Ref is a parsed media reference. Raw is the string the caller passed
// in and is the cache key everywhere; Path is the normalized form for
// the reference's kind (filesystem path for local files, the URI
// otherwise).
type Ref struct {
	Raw  string
	Kind Kind
	Path string
}

// Parse classifies a raw reference string by prefix inspection.
// This is the only place prefix stripping happens; everything
// downstream works with the tagged result.
func Parse(raw string) Ref {
	switch {
	case strings.HasPrefix(raw, "content://"):
		return Ref{Raw: raw, Kind: KindContentURI, Path: raw}
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return Ref{Raw: raw, Kind: KindRemoteURL, Path: raw}
	case strings.HasPrefix(raw, "file://"):
		return Ref{Raw: raw, Kind: KindLocalFile, Path: strings.TrimPrefix(raw, "file://")}
	default:
		return Ref{Raw: raw, Kind: KindLocalFile, Path: raw}
	}
}

// Ext returns the lowercase file extension of the normalized path.
func (r Ref) Ext() string {
	return strings.ToLower(path.Ext(r.Path))
}

// IsThumbnail reports whether the reference points at an
// already-generated thumbnail. Such references must classify as
// images, never as videos, or the loader would re-derive thumbnails
// from thumbnails forever.
func (r Ref) IsThumbnail() bool {
	if strings.Contains(r.Path, ThumbDirMarker) {
		return true
	}
	ext := r.Ext()
	return ext == ".jpg" || ext == ".jpeg"
}

// Media returns the display category for the reference.
// Videos are anything with a video extension, or a content URI whose
// path contains a video segment. Everything else goes through the
// general image path.
func (r Ref) Media() Media {
	if r.IsThumbnail() {
		return MediaImage
	}
	if VideoExtensions[r.Ext()] {
		return MediaVideo
	}
	if r.Kind == KindContentURI && strings.Contains(r.Path, "/video/") {
		return MediaVideo
	}
	return MediaImage
}

// MimeType returns the MIME type for the reference based on its
// extension, or application/octet-stream if unknown.
func (r Ref) MimeType() string {
	if mime, ok := MimeTypes[r.Ext()]; ok {
		return mime
	}
	return "application/octet-stream"
}

// ThumbDir returns the thumbnail directory under the given cache root.
func ThumbDir(cacheDir string) string {
	return filepath.Join(cacheDir, ThumbDirMarker)
}
