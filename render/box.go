package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-vistrack/postprocess"
	"github.com/swdee/go-vistrack/tracker"
	"gocv.io/x/gocv"
)

// boxLabel is a label precalculated for drawing after all boxes
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
	scale   float64
}

const (
	// boxes covering more than largeArea of the frame are drawn heavy
	largeArea = 0.10
	// boxes covering less than smallArea of the frame are drawn light
	smallArea = 0.01
)

// boxWeight returns the line thickness and label font scale for a box based
// on the share of the frame it covers
func boxWeight(b postprocess.BoxRect, frameArea int) (int, float64) {

	if frameArea <= 0 {
		return 2, 0.6
	}

	ratio := float64(b.Area()) / float64(frameArea)

	switch {
	case ratio > largeArea:
		return 4, 1.0
	case ratio < smallArea:
		return 1, 0.4
	default:
		return 2, 0.6
	}
}

// Detections renders the bounding boxes of stabilized detections colored by
// label group with a "label NN%" caption above each box.  Line thickness and
// caption size follow the size of the box relative to the frame
func Detections(img *gocv.Mat, dets []postprocess.Detection, font Font) {

	frameArea := img.Cols() * img.Rows()
	boxLabels := make([]boxLabel, 0, len(dets))

	for _, det := range dets {

		b := det.Box
		useClr := LabelColor(det.Label)
		thickness, scale := boxWeight(b, frameArea)

		gocv.Rectangle(img, image.Rect(b.X, b.Y, b.Right(), b.Bottom()),
			useClr, thickness)

		text := fmt.Sprintf("%s %d%%", det.Label, int(det.Score*100))
		textSize, baseline := gocv.GetTextSizeWithBaseline(text, font.Face,
			scale, font.Thickness)

		// keep the caption inside the top of the frame
		textY := max(b.Y-font.BottomPad, textSize.Y+font.BottomPad)

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(b.X-font.LeftPad, textY-textSize.Y-baseline-font.TopPad,
				b.X+textSize.X+font.RightPad, textY+baseline+font.TopPad),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(b.X, textY),
			scale:   scale,
		})
	}

	drawLabels(img, boxLabels, font)
}

// Tracks renders the boxes of tracks seen in the last frame, colored by
// track ID and captioned with the label and ID
func Tracks(img *gocv.Mat, tracks []tracker.TrackedObject, font Font,
	lineThickness int) {

	boxLabels := make([]boxLabel, 0, len(tracks))

	for _, tr := range tracks {

		if tr.MissedFrames > 0 {
			continue
		}

		b := tr.Box
		useClr := TrackColor(tr.ID)

		gocv.Rectangle(img, image.Rect(b.X, b.Y, b.Right(), b.Bottom()),
			useClr, lineThickness)

		text := fmt.Sprintf("%s %d", tr.Label, tr.ID)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = b.X + b.Width/2

		case Right:
			centerX = b.Right() - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = b.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
				b.Y-textSize.Y-font.TopPad-font.BottomPad,
				centerX+textSize.X/2+font.RightPad, b.Y),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(centerX-textSize.X/2, b.Y-font.BottomPad),
			scale:   font.Scale,
		})
	}

	drawLabels(img, boxLabels, font)
}

// drawLabels draws the precalculated box labels last so they are the top
// most layer on the image
func drawLabels(img *gocv.Mat, boxLabels []boxLabel, font Font) {
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, box.scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
