package loader

import (
	"image"
	"sync"

	"media-picker/internal/ledger"
	"media-picker/internal/logging"
	"media-picker/internal/mediaref"
	"media-picker/internal/memory"
	"media-picker/internal/metrics"
	"media-picker/internal/thumbnail"
	"media-picker/internal/workers"

	"github.com/disintegration/imaging"
)

// ThumbSource produces a bounded thumbnail file for a reference and
// returns its path, or "" on failure. *thumbnail.Generator satisfies
// this; tests substitute fakes.
type ThumbSource interface {
	Generate(ref mediaref.Ref, dir string, maxW, maxH int) string
}

// Config holds session configuration. Zero values select defaults.
type Config struct {
	// CacheDir is the root the thumbnail directory lives under.
	CacheDir string

	// Capacity bounds the in-memory thumbnail cache.
	Capacity int

	// MaxWidth and MaxHeight bound every video thumbnail decode.
	MaxWidth  int
	MaxHeight int

	// Workers is the decode pool size; QueueDepth its backlog bound.
	Workers    int
	QueueDepth int
}

// SessionOption configures optional session collaborators.
type SessionOption func(*Session)

// WithLedger wires sweep-on-close: closing the session removes every
// thumbnail file recorded under the given session id.
func WithLedger(l *ledger.Ledger, id string) SessionOption {
	return func(s *Session) {
		s.led = l
		s.id = id
	}
}

// WithMemoryMonitor makes decode workers wait out memory pressure
// before starting work.
func WithMemoryMonitor(m *memory.Monitor) SessionOption {
	return func(s *Session) {
		s.mon = m
	}
}

// Session routes display requests for one picker session. It owns the
// bounded cache and the in-flight set; both live and die with the
// session instead of leaking across pickers as process-global state.
type Session struct {
	cfg    Config
	source ThumbSource
	thumbs string

	// mu guards cache, inflight, epoch, paused, and pending as one
	// unit: a completion must observe a consistent view of all of
	// them.
	mu       sync.Mutex
	cache    *fifoCache
	inflight map[string]struct{}
	epoch    uint64
	paused   bool
	pending  []func()

	pool      *pool
	mon       *memory.Monitor
	led       *ledger.Ledger
	id        string
	closeOnce sync.Once
}

// NewSession creates a session around a thumbnail source.
func NewSession(cfg Config, source ThumbSource, opts ...SessionOption) *Session {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = thumbnail.DefaultTargetSize
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = thumbnail.DefaultTargetSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = workers.ForCPU(8)
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}

	s := &Session{
		cfg:      cfg,
		source:   source,
		thumbs:   mediaref.ThumbDir(cfg.CacheDir),
		cache:    newFIFOCache(cfg.Capacity),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = newPool(cfg.Workers, cfg.QueueDepth, s.mon)

	logging.Debug("Session created: cache capacity %d, %d workers, thumbnails in %s",
		cfg.Capacity, cfg.Workers, s.thumbs)
	return s
}

// ThumbDir returns the directory this session writes thumbnails to.
func (s *Session) ThumbDir() string {
	return s.thumbs
}

// DisplayInto routes a display request by the reference's media type.
// maxW/maxH apply to the image path only; video thumbnails always use
// the session bound.
func (s *Session) DisplayInto(raw string, t Target, maxW, maxH int) {
	ref := mediaref.Parse(raw)
	if ref.Media() == mediaref.MediaVideo {
		s.displayVideo(ref, t)
		return
	}
	s.displayImage(ref, t, maxW, maxH)
}

// DisplayVideo displays a generated thumbnail for a video reference,
// going through the cache, the in-flight set, and the decode pool.
func (s *Session) DisplayVideo(raw string, t Target) {
	s.displayVideo(mediaref.Parse(raw), t)
}

// DisplayImage displays an image reference through the
// memory-conscious image path.
func (s *Session) DisplayImage(raw string, t Target) {
	s.displayImage(mediaref.Parse(raw), t, s.cfg.MaxWidth, s.cfg.MaxHeight)
}

// DisplayAlbumCover is DisplayImage that refuses to ever decode a raw
// video reference: covers get the cached thumbnail or the placeholder,
// nothing else. This path historically bypassed the thumbnail
// substitution and decoded full frames.
func (s *Session) DisplayAlbumCover(raw string, t Target) {
	ref := mediaref.Parse(raw)
	if ref.Media() == mediaref.MediaVideo {
		s.mu.Lock()
		img, ok := s.cache.get(ref.Raw)
		s.mu.Unlock()
		if ok {
			t.Show(img)
		} else {
			t.ShowPlaceholder()
		}
		return
	}
	s.displayImage(ref, t, s.cfg.MaxWidth, s.cfg.MaxHeight)
}

// RequestThumbnail generates a thumbnail asynchronously on the decode
// pool. The callback receives the raw reference and the written path,
// or "" on failure or when the queue is saturated.
func (s *Session) RequestThumbnail(raw, dir string, cb func(ref, path string)) {
	ref := mediaref.Parse(raw)
	if dir == "" {
		dir = s.thumbs
	}
	ok := s.pool.submit(func() {
		cb(ref.Raw, s.source.Generate(ref, dir, s.cfg.MaxWidth, s.cfg.MaxHeight))
	})
	if !ok {
		metrics.QueueRejections.Inc()
		cb(ref.Raw, "")
	}
}

// Pause suspends the general image path. Queued image loads are held
// until Resume. In-flight video decodes are not cancelled.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	logging.Debug("Session paused")
}

// Resume releases image loads held while paused.
func (s *Session) Resume() {
	s.mu.Lock()
	s.paused = false
	held := s.pending
	s.pending = nil
	s.mu.Unlock()

	logging.Debug("Session resumed, releasing %d held image loads", len(held))
	for _, work := range held {
		if !s.pool.submit(work) {
			metrics.QueueRejections.Inc()
		}
	}
}

// Reset clears the cache and the in-flight set wholesale for a new
// picker session. Decodes already running keep running; their
// completions are dropped because they belong to an older epoch.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.cache.reset()
	s.inflight = make(map[string]struct{})
	s.pending = nil
	s.mu.Unlock()

	metrics.CacheEntries.Set(0)
	logging.Debug("Session reset")
}

// Close resets the session, stops the decode pool, and sweeps this
// session's thumbnail files from disk.
func (s *Session) Close() error {
	var sweepErr error
	s.closeOnce.Do(func() {
		s.Reset()
		s.pool.close()
		if s.led != nil {
			removed, err := s.led.SweepSession(s.id)
			if err != nil {
				sweepErr = err
				logging.Warn("Session sweep failed: %v", err)
			} else {
				logging.Debug("Session sweep removed %d thumbnail files", removed)
			}
		}
	})
	return sweepErr
}

// Stats reports cache and in-flight sizes for the host's health output.
func (s *Session) Stats() (cached, inflight int, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.len(), len(s.inflight), s.paused
}

func (s *Session) displayVideo(ref mediaref.Ref, t Target) {
	key := ref.Raw

	s.mu.Lock()
	if img, ok := s.cache.get(key); ok {
		s.mu.Unlock()
		metrics.CacheHits.Inc()
		t.Show(img)
		return
	}
	metrics.CacheMisses.Inc()

	if _, busy := s.inflight[key]; busy {
		// Another cell already asked for this reference; one decode
		// will serve both.
		s.mu.Unlock()
		t.ShowPlaceholder()
		return
	}
	s.inflight[key] = struct{}{}
	epoch := s.epoch
	s.mu.Unlock()

	t.ShowPlaceholder()
	metrics.InflightDecodes.Inc()

	ok := s.pool.submit(func() {
		s.decodeVideo(ref, t, epoch)
	})
	if !ok {
		metrics.InflightDecodes.Dec()
		metrics.QueueRejections.Inc()
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		logging.Warn("Decode queue full, dropping request for %s", key)
	}
}

func (s *Session) decodeVideo(ref mediaref.Ref, t Target, epoch uint64) {
	defer metrics.InflightDecodes.Dec()

	path := s.source.Generate(ref, s.thumbs, s.cfg.MaxWidth, s.cfg.MaxHeight)

	var img image.Image
	if path != "" {
		var err error
		img, err = imaging.Open(path)
		if err != nil {
			logging.Debug("Failed to reopen generated thumbnail %s: %v", path, err)
			img = nil
		}
	}

	s.mu.Lock()
	if epoch != s.epoch {
		// The session was reset while we decoded; the in-flight set
		// is already empty and the result belongs to nobody.
		s.mu.Unlock()
		return
	}
	delete(s.inflight, ref.Raw)
	if img != nil {
		if evicted := s.cache.put(ref.Raw, img); evicted > 0 {
			metrics.CacheEvictions.Add(float64(evicted))
		}
		metrics.CacheEntries.Set(float64(s.cache.len()))
	}
	s.mu.Unlock()

	if img == nil {
		// Failure already logged downstream; the placeholder stays.
		return
	}
	if t.Ref() != ref.Raw {
		metrics.StaleCompletions.Inc()
		logging.Debug("Dropping stale completion for %s (target now shows %s)", ref.Raw, t.Ref())
		return
	}
	t.Show(img)
}

func (s *Session) displayImage(ref mediaref.Ref, t Target, maxW, maxH int) {
	if maxW <= 0 {
		maxW = s.cfg.MaxWidth
	}
	if maxH <= 0 {
		maxH = s.cfg.MaxHeight
	}

	t.ShowPlaceholder()

	work := func() {
		img := s.loadImage(ref, maxW, maxH)
		if img == nil {
			return
		}
		if t.Ref() != ref.Raw {
			metrics.StaleCompletions.Inc()
			return
		}
		t.Show(img)
	}

	s.mu.Lock()
	if s.paused {
		s.pending = append(s.pending, work)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if !s.pool.submit(work) {
		metrics.QueueRejections.Inc()
	}
}

func (s *Session) loadImage(ref mediaref.Ref, maxW, maxH int) image.Image {
	if ref.Kind == mediaref.KindLocalFile {
		img, err := thumbnail.LoadDisplayImage(ref.Path, maxW, maxH)
		if err != nil {
			logging.Debug("Image load failed for %s: %v", ref.Raw, err)
			return nil
		}
		return img
	}

	// Content and remote references go through the generator, which
	// knows how to localize them.
	path := s.source.Generate(ref, s.thumbs, maxW, maxH)
	if path == "" {
		return nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		logging.Debug("Failed to reopen generated image %s: %v", path, err)
		return nil
	}
	return img
}
