package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"

	"media-picker/internal/logging"
)

// FrameExtractor produces a single representative frame of a video,
// already downscaled to at most the given bounds. Implementations must
// never decode a full-resolution frame; that is the invariant this
// whole package exists for.
type FrameExtractor interface {
	ExtractFrame(path string, maxW, maxH int) (image.Image, error)
}

// FFmpegExtractor is the primary extractor. It asks ffmpeg to scale
// during decode, so the frame handed back to Go is already within the
// target bounds.
type FFmpegExtractor struct{}

// ExtractFrame grabs one frame about a second in, scaled to fit
// maxW x maxH. If seeking fails (very short clips), it retries from
// the first frame.
func (e *FFmpegExtractor) ExtractFrame(path string, maxW, maxH int) (image.Image, error) {
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", maxW, maxH)
	return extractWithFilter(path, filter)
}

// MiniFrameExtractor is the legacy fallback: it decodes a fixed small
// frame regardless of the requested bounds and leaves the final scale
// to the caller. Used only when the primary extractor fails.
type MiniFrameExtractor struct {
	Width  int
	Height int
}

// ExtractFrame grabs one frame at the fixed mini size. The maxW/maxH
// arguments only tighten the bound when they are smaller than the
// configured mini size.
func (e *MiniFrameExtractor) ExtractFrame(path string, maxW, maxH int) (image.Image, error) {
	w, h := e.bounds(maxW, maxH)
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h)
	return extractWithFilter(path, filter)
}

func (e *MiniFrameExtractor) bounds(maxW, maxH int) (int, int) {
	w, h := e.Width, e.Height
	if w <= 0 || h <= 0 {
		w, h = 320, 240
	}
	if maxW > 0 && maxW < w {
		w = maxW
	}
	if maxH > 0 && maxH < h {
		h = maxH
	}
	return w, h
}

func extractWithFilter(path, filter string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	out, err := runFFmpeg(frameArgs(path, filter, true))
	if err != nil {
		logging.Debug("ffmpeg seek extract failed for %s: %v, retrying from first frame", path, err)
		out, err = runFFmpeg(frameArgs(path, filter, false))
		if err != nil {
			return nil, err
		}
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// frameArgs builds the ffmpeg invocation for a single scaled frame.
// The scale happens inside ffmpeg so the decoded frame crossing back
// into Go is already bounded.
func frameArgs(path, filter string, seek bool) []string {
	args := []string{"-i", path}
	if seek {
		args = append(args, "-ss", "00:00:01")
	}
	args = append(args,
		"-vframes", "1",
		"-vf", filter,
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	return args
}

func runFFmpeg(args []string) (*bytes.Buffer, error) {
	cmd := exec.Command("ffmpeg", args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	return &stdout, nil
}
