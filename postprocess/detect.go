package postprocess

// BoxRect are the pixel dimensions of the bounding box of a detected object,
// X and Y being the top left corner
type BoxRect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the x coordinate one past the right edge of the box
func (b BoxRect) Right() int {
	return b.X + b.Width
}

// Bottom returns the y coordinate one past the bottom edge of the box
func (b BoxRect) Bottom() int {
	return b.Y + b.Height
}

// Area returns the area of the box in pixels, an empty box has zero area
func (b BoxRect) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Intersect returns the overlapping region of the two boxes.  When the boxes
// do not overlap the zero BoxRect is returned
func (b BoxRect) Intersect(o BoxRect) BoxRect {

	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.Right(), o.Right())
	y2 := min(b.Bottom(), o.Bottom())

	if x2 <= x1 || y2 <= y1 {
		return BoxRect{}
	}

	return BoxRect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU returns the Intersection over Union of the two boxes in the range [0,1]
func (b BoxRect) IoU(o BoxRect) float32 {
	return calculateOverlap(b, o)
}

// Candidate is a decoded detection hypothesis that has not yet been through
// Non-Maximum Suppression.  It is only valid for the frame it was decoded from
type Candidate struct {
	// Box is the pixel space bounding box clipped to the frame
	Box BoxRect
	// Score is the maximum class score of the prediction
	Score float32
	// ClassID is the line number in the labels file the Model was trained on
	ClassID int
}

// Detection defines the attributes of a single object detected in a frame
// after Non-Maximum Suppression
type Detection struct {
	// Label is the class name of the object
	Label string
	// Score is the confidence score of the object detected
	Score float32
	// Box are the bounding box dimensions of the object location
	Box BoxRect
}
