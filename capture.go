package main

import (
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/kbinani/screenshot"
	"github.com/nfnt/resize"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
)

// thumbnailSize bounds source-list preview images
const thumbnailSize = 300

// Source describes a shareable display
type Source struct {
	ID          string
	DisplayName string
	Thumbnail   image.Image
}

// Media is an acquired capture stream: the local video track handed to
// the peer connection plus the source's native geometry. Frame
// production is the capture pipeline's concern; the session only needs
// the track handle and a way to release it.
type Media struct {
	Track  *webrtc.TrackLocalStaticSample
	Width  int
	Height int

	stopOnce sync.Once
	onStop   func()
}

// WriteSample forwards an encoded frame to the track
func (m *Media) WriteSample(sample media.Sample) error {
	return m.Track.WriteSample(sample)
}

// Stop releases the capture stream. Safe to call repeatedly.
func (m *Media) Stop() {
	m.stopOnce.Do(func() {
		if m.onStop != nil {
			m.onStop()
		}
	})
}

// CaptureService enumerates shareable sources and acquires media from
// one of them.
type CaptureService interface {
	ListSources() ([]Source, error)
	AcquireMedia(sourceID string) (*Media, error)
}

// displayCapture implements CaptureService over the attached displays
type displayCapture struct{}

// NewCaptureService returns the display-based capture service
func NewCaptureService() CaptureService {
	return &displayCapture{}
}

// ListSources returns one source per active display, with a thumbnail
// grabbed from the current screen contents.
func (displayCapture) ListSources() ([]Source, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays")
	}

	sources := make([]Source, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)

		var thumb image.Image
		if img, err := screenshot.CaptureRect(bounds); err == nil {
			thumb = resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)
		}

		sources = append(sources, Source{
			ID:          strconv.Itoa(i),
			DisplayName: fmt.Sprintf("Display %d (%dx%d)", i+1, bounds.Dx(), bounds.Dy()),
			Thumbnail:   thumb,
		})
	}
	return sources, nil
}

// AcquireMedia builds the local video track for a display source
func (displayCapture) AcquireMedia(sourceID string) (*Media, error) {
	index, err := strconv.Atoi(sourceID)
	if err != nil || index < 0 || index >= screenshot.NumActiveDisplays() {
		return nil, fmt.Errorf("unknown source %q", sourceID)
	}

	bounds := screenshot.GetDisplayBounds(index)

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video", "pairdesk",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create video track: %w", err)
	}

	return &Media{
		Track:  track,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// primaryDisplayBounds returns the geometry of display 0, used by the
// dispatcher to map percentages onto host pixels.
func primaryDisplayBounds() (width, height int, ok bool) {
	if screenshot.NumActiveDisplays() == 0 {
		return 0, 0, false
	}
	bounds := screenshot.GetDisplayBounds(0)
	return bounds.Dx(), bounds.Dy(), true
}
