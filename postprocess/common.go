package postprocess

// clipBox moves the left and top edges of the box onto the frame and trims
// the width and height that overflow the right and bottom edges.  A box
// hanging off the left or top keeps its size and shifts inside the frame.
// A box starting beyond the right or bottom edge gets a negative size
func clipBox(b BoxRect, frameWidth, frameHeight int) BoxRect {

	x := max(b.X, 0)
	y := max(b.Y, 0)

	return BoxRect{
		X:      x,
		Y:      y,
		Width:  min(b.Width, frameWidth-x),
		Height: min(b.Height, frameHeight-y),
	}
}

// calculateOverlap works out the Intersection of Union (IoU) value of two
// boxes.  Areas are exclusive of the far edge, so two boxes sharing only a
// border have an IoU of zero
func calculateOverlap(a, b BoxRect) float32 {

	intersection := float32(a.Intersect(b).Area())
	union := float32(a.Area()) + float32(b.Area()) - intersection

	if union <= 0 {
		return 0.0
	}

	return intersection / union
}
