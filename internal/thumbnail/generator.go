package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"media-picker/internal/ledger"
	"media-picker/internal/logging"
	"media-picker/internal/mediaref"
	"media-picker/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// DefaultTargetSize is the thumbnail bound used when the caller
	// passes no explicit size.
	DefaultTargetSize = 200

	// MaxTargetSize caps the thumbnail bound. Anything larger defeats
	// the purpose of bounded decoding.
	MaxTargetSize = 512

	// DefaultQuality is the JPEG quality for written thumbnails.
	DefaultQuality = 80

	miniWidth  = 320
	miniHeight = 240
)

// Failure kinds. None of these ever reach a caller as an error; the
// Generate boundary converts them all to the empty-path result.
var (
	errNotFound    = errors.New("reference not readable")
	errDecode      = errors.New("frame decode failed")
	errWrite       = errors.New("thumbnail write failed")
	errUnsupported = errors.New("unsupported reference")
)

// ContentResolver maps a content:// URI to a readable local file.
type ContentResolver interface {
	Resolve(uri string) (string, error)
}

// DirResolver resolves content URIs against a root directory by
// treating everything after the scheme as a relative path.
type DirResolver struct {
	Root string
}

// Resolve implements ContentResolver.
func (d DirResolver) Resolve(uri string) (string, error) {
	rel := path.Clean(strings.TrimPrefix(uri, "content://"))
	if rel == "." || rel == "/" || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid content uri %q", uri)
	}
	return filepath.Join(d.Root, filepath.FromSlash(rel)), nil
}

// Generator produces bounded thumbnails and persists them as JPEG
// files in a target directory. It never returns an error: every
// failure collapses to the empty path so the caller renders a
// placeholder instead of crashing.
type Generator struct {
	primary  FrameExtractor
	legacy   FrameExtractor
	resolver ContentResolver
	client   *http.Client
	led      *ledger.Ledger
	session  string
	seq      atomic.Int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithExtractors replaces the primary and legacy frame extractors.
func WithExtractors(primary, legacy FrameExtractor) Option {
	return func(g *Generator) {
		g.primary = primary
		g.legacy = legacy
	}
}

// WithContentResolver sets the resolver for content:// references.
func WithContentResolver(r ContentResolver) Option {
	return func(g *Generator) { g.resolver = r }
}

// WithHTTPClient sets the client used to fetch remote references.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Generator) { g.client = c }
}

// WithLedger records every written file under the given session so it
// can be swept when the session ends.
func WithLedger(l *ledger.Ledger, session string) Option {
	return func(g *Generator) {
		g.led = l
		g.session = session
	}
}

// New creates a Generator wired to ffmpeg-based extraction.
func New(opts ...Option) *Generator {
	g := &Generator{
		primary: &FFmpegExtractor{},
		legacy:  &MiniFrameExtractor{Width: miniWidth, Height: miniHeight},
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces one thumbnail for ref in dir and returns its
// absolute path, or "" on any failure. The decoded frame never exceeds
// the clamped maxW x maxH bound.
func (g *Generator) Generate(ref mediaref.Ref, dir string, maxW, maxH int) string {
	maxW, maxH = clampTarget(maxW, maxH)
	media := string(ref.Media())
	start := time.Now()

	out, extractor, err := g.generate(ref, dir, maxW, maxH)
	if err != nil {
		logging.Debug("Thumbnail generation failed for %s: %v", ref.Raw, err)
		metrics.GenerationsTotal.WithLabelValues(media, statusFor(err)).Inc()
		return ""
	}

	metrics.GenerationsTotal.WithLabelValues(media, "success").Inc()
	metrics.GenerationDuration.WithLabelValues(media, extractor).Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail generated for %s: %s (%s, %v)", ref.Raw, out, extractor, time.Since(start))
	return out
}

// Request generates a thumbnail asynchronously. The callback receives
// the raw reference and the written path, or "" on failure.
// Fire-and-forget: there is no way to cancel a started request.
func (g *Generator) Request(raw, dir string, cb func(ref, path string)) {
	go func() {
		cb(raw, g.Generate(mediaref.Parse(raw), dir, 0, 0))
	}()
}

func (g *Generator) generate(ref mediaref.Ref, dir string, maxW, maxH int) (string, string, error) {
	local, cleanup, err := g.localize(ref)
	if err != nil {
		return "", "", err
	}
	defer cleanup()

	if _, err := os.Stat(local); err != nil {
		return "", "", fmt.Errorf("%w: %v", errNotFound, err)
	}

	frame, extractor, err := g.decodeFrame(ref, local, maxW, maxH)
	if err != nil {
		return "", "", err
	}

	// Final software scale. A no-op for the primary path, the second
	// stage for the legacy mini frame. The input is already bounded on
	// either path.
	thumb := imaging.Fit(frame, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: DefaultQuality}); err != nil {
		return "", "", fmt.Errorf("%w: %v", errWrite, err)
	}

	out, err := g.writeThumb(dir, buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errWrite, err)
	}

	if g.led != nil {
		if err := g.led.Record(g.session, out, int64(buf.Len())); err != nil {
			logging.Warn("Failed to record thumbnail in ledger: %v", err)
		}
	}

	return out, extractor, nil
}

func (g *Generator) decodeFrame(ref mediaref.Ref, local string, maxW, maxH int) (image.Image, string, error) {
	if ref.Media() != mediaref.MediaVideo {
		img, err := LoadDisplayImage(local, maxW, maxH)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", errDecode, err)
		}
		return img, "primary", nil
	}

	img, err := g.primary.ExtractFrame(local, maxW, maxH)
	if err == nil {
		return img, "primary", nil
	}

	logging.Debug("Primary extractor failed for %s: %v, trying legacy mini path", ref.Raw, err)
	metrics.ExtractorFallbacks.Inc()

	img, err = g.legacy.ExtractFrame(local, maxW, maxH)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errDecode, err)
	}
	return img, "legacy", nil
}

// localize turns a reference into a readable local path. The cleanup
// function removes any temporary download and is safe to call always.
func (g *Generator) localize(ref mediaref.Ref) (string, func(), error) {
	noop := func() {}

	switch ref.Kind {
	case mediaref.KindLocalFile:
		return ref.Path, noop, nil

	case mediaref.KindContentURI:
		if g.resolver == nil {
			return "", noop, fmt.Errorf("%w: no content resolver configured", errUnsupported)
		}
		local, err := g.resolver.Resolve(ref.Path)
		if err != nil {
			return "", noop, fmt.Errorf("%w: %v", errNotFound, err)
		}
		return local, noop, nil

	case mediaref.KindRemoteURL:
		local, err := g.fetchRemote(ref.Path)
		if err != nil {
			return "", noop, fmt.Errorf("%w: %v", errNotFound, err)
		}
		return local, func() {
			if err := os.Remove(local); err != nil {
				logging.Warn("Failed to remove temp download %s: %v", local, err)
			}
		}, nil

	default:
		return "", noop, fmt.Errorf("%w: kind %q", errUnsupported, ref.Kind)
	}
}

func (g *Generator) fetchRemote(url string) (string, error) {
	resp, err := g.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp("", "picker-remote-*"+path.Ext(url))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// writeThumb writes the encoded bytes under a timestamp-suffixed name.
// The sequence counter keeps names strictly increasing even when two
// writes land on the same nanosecond.
func (g *Generator) writeThumb(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	for attempt := 0; attempt < 5; attempt++ {
		name := fmt.Sprintf("thumb_%d.jpg", time.Now().UnixNano()+g.seq.Add(1))
		out := filepath.Join(dir, name)

		f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", err
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(out)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(out)
			return "", err
		}
		return out, nil
	}
	return "", fmt.Errorf("could not allocate a unique thumbnail name in %s", dir)
}

func clampTarget(maxW, maxH int) (int, int) {
	if maxW <= 0 {
		maxW = DefaultTargetSize
	}
	if maxH <= 0 {
		maxH = DefaultTargetSize
	}
	if maxW > MaxTargetSize {
		maxW = MaxTargetSize
	}
	if maxH > MaxTargetSize {
		maxH = MaxTargetSize
	}
	return maxW, maxH
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, errNotFound):
		return "error_not_found"
	case errors.Is(err, errDecode):
		return "error_decode"
	case errors.Is(err, errWrite):
		return "error_write"
	case errors.Is(err, errUnsupported):
		return "error_unsupported"
	default:
		return "error_decode"
	}
}
