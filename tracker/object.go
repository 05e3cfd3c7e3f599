package tracker

import "github.com/swdee/go-vistrack/postprocess"

// TrackedObject is a persistent identity the TrackStore maintains across
// frames for a detected object
type TrackedObject struct {
	// ID is the unique track ID, never reused once issued
	ID int
	// Box is the smoothed bounding box of the object
	Box postprocess.BoxRect
	// Label is the class label of the object, fixed for the life of the track
	Label string
	// Confidence is the score of the last detection matched to the track
	Confidence float32
	// MissedFrames is the number of consecutive frames the track has gone
	// without a matching detection
	MissedFrames int
}

// detection returns the track's current state as a Detection
func (t *TrackedObject) detection() postprocess.Detection {
	return postprocess.Detection{
		Label: t.Label,
		Score: t.Confidence,
		Box:   t.Box,
	}
}

// smooth blends the track box toward the new box using the given weight for
// the new box, truncating each field toward zero.  The blend is float32 so
// 1-0.3 is exactly 0.7 and a box blended with itself does not change
func (t *TrackedObject) smooth(b postprocess.BoxRect, alpha float32) {

	keep := 1 - alpha

	blend := func(old, new int) int {
		// explicit conversions keep the products from being fused
		return int(float32(keep*float32(old)) + float32(alpha*float32(new)))
	}

	t.Box = postprocess.BoxRect{
		X:      blend(t.Box.X, b.X),
		Y:      blend(t.Box.Y, b.Y),
		Width:  blend(t.Box.Width, b.Width),
		Height: blend(t.Box.Height, b.Height),
	}
}
