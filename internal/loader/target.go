package loader

import (
	"image"
	"sync"
)

// Target is a display surface for one picker cell. Cells are recycled
// as the list scrolls, so a target's bound reference can change while
// a decode for its previous reference is still running. Every
// asynchronous completion re-checks Ref() before calling Show; stale
// completions are dropped.
type Target interface {
	// Ref returns the reference currently bound to this surface.
	Ref() string
	// ShowPlaceholder displays the placeholder.
	ShowPlaceholder()
	// Show displays a decoded image.
	Show(img image.Image)
}

// ImageView is a minimal Target for hosts and tests.
type ImageView struct {
	mu          sync.Mutex
	ref         string
	img         image.Image
	placeholder bool
}

// NewImageView returns an unbound view.
func NewImageView() *ImageView {
	return &ImageView{}
}

// Bind points the view at a new reference and clears its content,
// mimicking a recycled list cell.
func (v *ImageView) Bind(ref string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ref = ref
	v.img = nil
	v.placeholder = false
}

// Ref implements Target.
func (v *ImageView) Ref() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ref
}

// ShowPlaceholder implements Target.
func (v *ImageView) ShowPlaceholder() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholder = true
	v.img = nil
}

// Show implements Target.
func (v *ImageView) Show(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.img = img
	v.placeholder = false
}

// Image returns the displayed image, if any.
func (v *ImageView) Image() (image.Image, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.img, v.img != nil
}

// IsPlaceholder reports whether the placeholder is showing.
func (v *ImageView) IsPlaceholder() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placeholder
}
