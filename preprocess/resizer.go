package preprocess

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a video frame holds no image data
var ErrEmptyFrame = errors.New("empty video frame")

// Resizer defines the struct used for converting video frames into the input
// blob of a detection Model.  Frames are stretched to the Model input size
// without letterboxing, so the x and y scale factors are independent
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// Resize stretches the source image to the Model input size
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat) error {

	if src.Empty() {
		return ErrEmptyFrame
	}

	if src.Cols() != r.srcWidth || src.Rows() != r.srcHeight {
		return fmt.Errorf("frame size %dx%d does not match resizer source %dx%d",
			src.Cols(), src.Rows(), r.srcWidth, r.srcHeight)
	}

	gocv.Resize(src, dest, image.Pt(r.destWidth, r.destHeight),
		0, 0, gocv.InterpolationLinear)

	return nil
}

// Blob resizes a BGR video frame and returns it as an NCHW float blob in
// RGB order with pixel values scaled to [0,1].  The caller must Close the
// returned Mat
func (r *Resizer) Blob(src gocv.Mat) (gocv.Mat, error) {

	if err := r.Resize(src, &r.tempMat); err != nil {
		return gocv.Mat{}, err
	}

	blob := gocv.BlobFromImage(r.tempMat, 1.0/255.0,
		image.Pt(r.destWidth, r.destHeight), gocv.NewScalar(0, 0, 0, 0),
		true, false)

	return blob, nil
}

// ScaleX returns the factor from Model input x coordinates to frame pixels
func (r *Resizer) ScaleX() float32 {
	return float32(r.srcWidth) / float32(r.destWidth)
}

// ScaleY returns the factor from Model input y coordinates to frame pixels
func (r *Resizer) ScaleY() float32 {
	return float32(r.srcHeight) / float32(r.destHeight)
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}
