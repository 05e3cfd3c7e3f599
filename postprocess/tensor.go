package postprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrInputShape is matched by every InputShapeError
	ErrInputShape = errors.New("tensor shape does not match [1, 4+C, P]")
	// ErrClassIndexOutOfRange is reported when a candidate's class index is
	// not in the label table
	ErrClassIndexOutOfRange = errors.New("class index out of range")
)

// boxAttrs is the number of leading rows in the output tensor holding the
// box centre x, centre y, width and height
const boxAttrs = 4

// Tensor is the raw output of the inference engine for a single frame.  For
// YOLOv8 style detectors the Shape is [1, 4+C, P] where C is the number of
// classes and P the number of predictions, with Data stored row major so the
// value for attribute a of prediction p is at Data[a*P+p]
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor returns a Tensor with the given data and dimensions
func NewTensor(data []float32, dims ...int) *Tensor {
	return &Tensor{
		Shape: dims,
		Data:  data,
	}
}

// NumAttrs returns the number of attributes (4+C) per prediction
func (t *Tensor) NumAttrs() int {
	if len(t.Shape) < 2 {
		return 0
	}
	return t.Shape[1]
}

// NumPredictions returns the number of predictions P held in the tensor
func (t *Tensor) NumPredictions() int {
	if len(t.Shape) < 3 {
		return 0
	}
	return t.Shape[2]
}

// InputShapeError is returned when a tensor does not match the shape
// [1, 4+C, P] expected for the configured number of classes
type InputShapeError struct {
	// Shape is the shape of the tensor received
	Shape []int
	// DataLen is the number of elements in the tensor data
	DataLen int
	// ClassCount is the number of classes expected
	ClassCount int
	// Reason describes the mismatch
	Reason string
}

// Error returns the error message
func (e *InputShapeError) Error() string {
	return fmt.Sprintf("invalid tensor shape %v (len %d) for %d classes: %s",
		e.Shape, e.DataLen, e.ClassCount, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInputShape)
func (e *InputShapeError) Unwrap() error {
	return ErrInputShape
}

// validate checks the tensor against the [1, 4+classCount, P] contract
func (t *Tensor) validate(classCount int) error {

	shapeErr := func(reason string) error {
		return &InputShapeError{
			Shape:      append([]int(nil), t.Shape...),
			DataLen:    len(t.Data),
			ClassCount: classCount,
			Reason:     reason,
		}
	}

	if len(t.Shape) != 3 {
		return shapeErr(fmt.Sprintf("rank %d, expected 3", len(t.Shape)))
	}

	if t.Shape[0] != 1 {
		return shapeErr(fmt.Sprintf("batch size %d, expected 1", t.Shape[0]))
	}

	if t.Shape[1] != boxAttrs+classCount {
		return shapeErr(fmt.Sprintf("%d attributes, expected %d",
			t.Shape[1], boxAttrs+classCount))
	}

	if t.Shape[2] < 0 {
		return shapeErr("negative prediction count")
	}

	if len(t.Data) != t.Shape[1]*t.Shape[2] {
		return shapeErr(fmt.Sprintf("data length %d, expected %d",
			len(t.Data), t.Shape[1]*t.Shape[2]))
	}

	return nil
}
