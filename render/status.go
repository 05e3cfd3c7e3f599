package render

import (
	"image"

	"gocv.io/x/gocv"
)

// Status writes lines of text such as the frame rate and object count down
// the top left corner of the frame.  The first line sits TopPad pixels from
// the top with BottomPad pixels between lines
func Status(img *gocv.Mat, lines []string, font Font) {
	for i, line := range lines {
		gocv.PutTextWithParams(img, line,
			image.Pt(font.LeftPad, font.TopPad+i*font.BottomPad),
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
