package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swdee/go-vistrack/postprocess"
	"github.com/swdee/go-vistrack/tracker"
	"gocv.io/x/gocv"
)

// blankFrame returns a black 640x480 BGR frame
func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		480, 640, gocv.MatTypeCV8UC3)
}

// pixel returns the color of the pixel at x,y
func pixel(img gocv.Mat, x, y int) color.RGBA {
	v := img.GetVecbAt(y, x)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 255}
}

func TestBoxWeight(t *testing.T) {

	frame := 640 * 480

	tests := []struct {
		name      string
		box       postprocess.BoxRect
		thickness int
		scale     float64
	}{
		{"large", postprocess.BoxRect{Width: 200, Height: 200}, 4, 1.0},
		{"medium", postprocess.BoxRect{Width: 100, Height: 100}, 2, 0.6},
		{"small", postprocess.BoxRect{Width: 20, Height: 20}, 1, 0.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			thickness, scale := boxWeight(tc.box, frame)
			assert.Equal(t, tc.thickness, thickness)
			assert.Equal(t, tc.scale, scale)
		})
	}
}

func TestLabelColor(t *testing.T) {
	assert.Equal(t, Blue, LabelColor("person"))
	assert.Equal(t, Red, LabelColor("bus"))
	assert.Equal(t, Orange, LabelColor("dining table"))
	assert.Equal(t, Cyan, LabelColor("cell phone"))
	assert.Equal(t, Magenta, LabelColor("cup"))
	assert.Equal(t, Purple, LabelColor("vase"))
	assert.Equal(t, Green, LabelColor("giraffe"))

	assert.Equal(t, TrackColor(3), TrackColor(3+len(classColors)))
}

func TestDetectionsDrawsLabelColor(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	Detections(&img, []postprocess.Detection{
		{Label: "person", Score: 0.87, Box: postprocess.BoxRect{X: 100, Y: 100, Width: 100, Height: 100}},
		{Label: "giraffe", Score: 0.5, Box: postprocess.BoxRect{X: 400, Y: 200, Width: 100, Height: 100}},
	}, DefaultFont())

	// left edge below the caption
	assert.Equal(t, Blue, pixel(img, 100, 150))
	assert.Equal(t, Green, pixel(img, 400, 250))

	// box interior is untouched
	assert.Equal(t, Black, pixel(img, 150, 150))
}

func TestTrailSkipsMissedTracks(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	trail := tracker.NewTrail(10)

	seen := tracker.TrackedObject{ID: 1, Label: "person",
		Box: postprocess.BoxRect{X: 100, Y: 100, Width: 40, Height: 40}}
	missed := tracker.TrackedObject{ID: 2, Label: "cup",
		Box: postprocess.BoxRect{X: 300, Y: 300, Width: 40, Height: 40}}

	trail.Update([]tracker.TrackedObject{seen, missed})

	seen.Box.X += 20
	trail.Update([]tracker.TrackedObject{seen, missed})

	missed.MissedFrames = 1
	Trail(&img, []tracker.TrackedObject{seen, missed}, trail, DefaultTrailStyle())

	// circle on the current centre point
	assert.Equal(t, TrackColor(1), pixel(img, 140, 120))
	assert.Equal(t, Black, pixel(img, 320, 320))
}

func TestStatus(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	Status(&img, []string{"FPS: 30", "Objects: 2"}, StatusFont())

	nonZero := func(y0, y1 int) bool {
		region := img.Region(image.Rect(0, y0, 300, y1))
		defer region.Close()

		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

		return gocv.CountNonZero(gray) > 0
	}

	assert.True(t, nonZero(0, 40))
	assert.True(t, nonZero(45, 80))
	assert.False(t, nonZero(100, 480))
}
