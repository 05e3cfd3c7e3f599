package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment of a track caption along the top of its box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings for box captions.  Detections
// scales the caption by box size so Scale only applies to track captions
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.6,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.Line8,
		LeftPad:   2,
		RightPad:  2,
		TopPad:    2,
		BottomPad: 5,
		Alignment: Left,
	}
}

// StatusFont returns the font used for the status lines in the top left
// corner of the frame
func StatusFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     1.0,
		Color:     Green,
		Thickness: 2,
		LineType:  gocv.Line8,
		LeftPad:   10,
		TopPad:    30,
		BottomPad: 40,
	}
}
