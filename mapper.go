package main

// ViewportBounds describes the rendered video surface in the client's
// window: its size and its offset from the window origin. Updated by the
// rendering collaborator whenever the surface resizes; never transmitted.
type ViewportBounds struct {
	Width  float64
	Height float64
	Left   float64
	Top    float64
}

// Mapper converts pointer positions on the rendered surface into
// normalized host-screen percentages, compensating for the letterboxing
// that appears when the surface and the source media have different
// aspect ratios.
type Mapper struct {
	Bounds      ViewportBounds
	MediaWidth  float64 // source media native width
	MediaHeight float64 // source media native height
}

// Map converts a window-relative pointer position to (xPercent, yPercent)
// in [0,1]. ok is false when the pointer sits in letterbox padding or the
// mapper lacks geometry; such events must be dropped, not clamped.
func (m *Mapper) Map(x, y float64) (xPercent, yPercent float64, ok bool) {
	if m.Bounds.Width <= 0 || m.Bounds.Height <= 0 || m.MediaWidth <= 0 || m.MediaHeight <= 0 {
		return 0, 0, false
	}

	mediaRatio := m.MediaWidth / m.MediaHeight
	containerRatio := m.Bounds.Width / m.Bounds.Height

	var renderWidth, renderHeight, offsetX, offsetY float64
	if containerRatio > mediaRatio {
		// Pillarboxed: bars on the left/right
		renderHeight = m.Bounds.Height
		renderWidth = renderHeight * mediaRatio
		offsetX = (m.Bounds.Width - renderWidth) / 2
	} else {
		// Letterboxed: bars on the top/bottom
		renderWidth = m.Bounds.Width
		renderHeight = renderWidth / mediaRatio
		offsetY = (m.Bounds.Height - renderHeight) / 2
	}

	xPercent = (x - m.Bounds.Left - offsetX) / renderWidth
	yPercent = (y - m.Bounds.Top - offsetY) / renderHeight

	if xPercent < 0 || xPercent > 1 || yPercent < 0 || yPercent > 1 {
		return 0, 0, false
	}
	return xPercent, yPercent, true
}
