package loader

import (
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-picker/internal/mediaref"

	"github.com/disintegration/imaging"
)

// fakeSource satisfies ThumbSource. When block is non-nil, Generate
// waits for it to be closed, which lets tests hold a decode mid-flight.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	path  string
	fail  bool
	block chan struct{}
}

func (f *fakeSource) Generate(ref mediaref.Ref, dir string, maxW, maxH int) string {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[ref.Raw]++
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.fail {
		return ""
	}
	return f.path
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func writeTestThumb(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thumb.jpg")
	img := imaging.New(8, 8, color.NRGBA{R: 120, G: 30, B: 30, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("writing test thumbnail: %v", err)
	}
	return path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestSession(t *testing.T, src ThumbSource, cfg Config) *Session {
	t.Helper()
	if cfg.CacheDir == "" {
		cfg.CacheDir = t.TempDir()
	}
	s := NewSession(cfg, src)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDisplayVideoGeneratesAndCaches(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t)}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/clip.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayVideo(ref, v)

	waitFor(t, "thumbnail to display", func() bool {
		_, ok := v.Image()
		return ok
	})
	if src.total() != 1 {
		t.Fatalf("Generate called %d times, want 1", src.total())
	}

	// A second request for the same reference is a cache hit and
	// completes synchronously without another decode.
	v2 := NewImageView()
	v2.Bind(ref)
	s.DisplayVideo(ref, v2)
	if _, ok := v2.Image(); !ok {
		t.Error("cache hit did not display synchronously")
	}
	if src.total() != 1 {
		t.Errorf("Generate called %d times after cache hit, want 1", src.total())
	}
}

func TestDisplayVideoCollapsesDuplicateRequests(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t), block: make(chan struct{})}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/clip.mp4"
	v1 := NewImageView()
	v1.Bind(ref)
	v2 := NewImageView()
	v2.Bind(ref)

	s.DisplayVideo(ref, v1)
	waitFor(t, "first decode to start", func() bool { return src.total() == 1 })

	// Second request while the first is in flight joins it instead of
	// starting another decode.
	s.DisplayVideo(ref, v2)
	if !v2.IsPlaceholder() {
		t.Error("duplicate request did not show the placeholder")
	}

	close(src.block)
	waitFor(t, "first view to display", func() bool {
		_, ok := v1.Image()
		return ok
	})
	if src.total() != 1 {
		t.Errorf("Generate called %d times for duplicate requests, want 1", src.total())
	}
}

func TestDisplayVideoDropsStaleCompletion(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t), block: make(chan struct{})}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/clip.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayVideo(ref, v)
	waitFor(t, "decode to start", func() bool { return src.total() == 1 })

	// The cell scrolled away and was rebound before the decode landed.
	v.Bind("file:///videos/other.mp4")
	close(src.block)

	// The result still enters the cache; it just never reaches the
	// recycled view.
	waitFor(t, "completion to be cached", func() bool {
		cached, inflight, _ := s.Stats()
		return cached == 1 && inflight == 0
	})
	if img, ok := v.Image(); ok {
		t.Errorf("stale completion was displayed: %v", img.Bounds())
	}
}

func TestResetDropsInFlightCompletions(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t), block: make(chan struct{})}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/clip.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayVideo(ref, v)
	waitFor(t, "decode to start", func() bool { return src.total() == 1 })

	s.Reset()
	close(src.block)

	// The completion belongs to the pre-reset epoch and must not
	// repopulate the cleared cache.
	waitFor(t, "in-flight count to drain", func() bool {
		_, inflight, _ := s.Stats()
		return inflight == 0
	})
	time.Sleep(20 * time.Millisecond)
	if cached, _, _ := s.Stats(); cached != 0 {
		t.Errorf("cache has %d entries after reset, want 0", cached)
	}
}

func TestDisplayVideoFailureLeavesPlaceholder(t *testing.T) {
	src := &fakeSource{fail: true}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/broken.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayVideo(ref, v)

	waitFor(t, "failed decode to drain", func() bool {
		_, inflight, _ := s.Stats()
		return src.total() == 1 && inflight == 0
	})
	if !v.IsPlaceholder() {
		t.Error("failed decode did not leave the placeholder showing")
	}
	if cached, _, _ := s.Stats(); cached != 0 {
		t.Errorf("failed decode cached %d entries, want 0", cached)
	}
}

func TestDisplayVideoQueueSaturation(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t), block: make(chan struct{})}
	s := newTestSession(t, src, Config{Workers: 1, QueueDepth: 1})

	bind := func(ref string) *ImageView {
		v := NewImageView()
		v.Bind(ref)
		return v
	}

	// First request occupies the single worker; second fills the queue.
	s.DisplayVideo("file:///videos/a.mp4", bind("file:///videos/a.mp4"))
	waitFor(t, "worker to pick up first decode", func() bool { return src.total() == 1 })
	s.DisplayVideo("file:///videos/b.mp4", bind("file:///videos/b.mp4"))

	// Third request is rejected and must not linger in the in-flight
	// set, or a retry after scrolling back would be refused forever.
	s.DisplayVideo("file:///videos/c.mp4", bind("file:///videos/c.mp4"))
	if _, inflight, _ := s.Stats(); inflight != 2 {
		t.Errorf("in-flight count is %d after rejection, want 2", inflight)
	}

	close(src.block)
}

func TestDisplayAlbumCoverNeverDecodesVideo(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t)}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	const ref = "file:///videos/clip.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayAlbumCover(ref, v)

	if !v.IsPlaceholder() {
		t.Error("uncached video cover did not show the placeholder")
	}
	time.Sleep(20 * time.Millisecond)
	if src.total() != 0 {
		t.Errorf("album cover path triggered %d decodes, want 0", src.total())
	}

	// Once a thumbnail is cached the cover path serves it.
	s.DisplayVideo(ref, v)
	waitFor(t, "thumbnail to display", func() bool {
		_, ok := v.Image()
		return ok
	})
	v2 := NewImageView()
	v2.Bind(ref)
	s.DisplayAlbumCover(ref, v2)
	if _, ok := v2.Image(); !ok {
		t.Error("cached video cover was not displayed")
	}
}

func TestPauseHoldsImageLoadsUntilResume(t *testing.T) {
	src := &fakeSource{}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	path := filepath.Join(t.TempDir(), "photo.png")
	img := imaging.New(32, 24, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("writing test image: %v", err)
	}

	v := NewImageView()
	v.Bind(path)

	s.Pause()
	s.DisplayImage(path, v)

	time.Sleep(50 * time.Millisecond)
	if _, ok := v.Image(); ok {
		t.Fatal("image was displayed while the session was paused")
	}
	if !v.IsPlaceholder() {
		t.Error("paused image request did not show the placeholder")
	}

	s.Resume()
	waitFor(t, "held image load to complete", func() bool {
		_, ok := v.Image()
		return ok
	})
}

func TestPauseDoesNotHoldVideoPath(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t)}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	s.Pause()

	const ref = "file:///videos/clip.mp4"
	v := NewImageView()
	v.Bind(ref)
	s.DisplayVideo(ref, v)

	waitFor(t, "video thumbnail despite pause", func() bool {
		_, ok := v.Image()
		return ok
	})
}

func TestRequestThumbnailCallback(t *testing.T) {
	src := &fakeSource{path: writeTestThumb(t)}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	type result struct{ ref, path string }
	got := make(chan result, 1)

	const ref = "file:///videos/clip.mp4"
	s.RequestThumbnail(ref, "", func(r, p string) {
		got <- result{r, p}
	})

	select {
	case r := <-got:
		if r.ref != ref {
			t.Errorf("callback ref = %q, want %q", r.ref, ref)
		}
		if r.path != src.path {
			t.Errorf("callback path = %q, want %q", r.path, src.path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestRequestThumbnailFailureReportsEmptyPath(t *testing.T) {
	src := &fakeSource{fail: true}
	s := newTestSession(t, src, Config{Workers: 2, QueueDepth: 8})

	got := make(chan string, 1)
	s.RequestThumbnail("file:///videos/broken.mp4", "", func(_, p string) {
		got <- p
	})

	select {
	case p := <-got:
		if p != "" {
			t.Errorf("callback path = %q, want empty on failure", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	s := NewSession(Config{CacheDir: t.TempDir(), Workers: 1, QueueDepth: 1}, src)

	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
