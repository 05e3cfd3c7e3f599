package postprocess

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Decoder converts the raw output tensor of a YOLOv8 style detector into
// per frame Candidates.  It holds no state between calls and is safe for
// concurrent use
type Decoder struct {
	// Params are the decoding configuration parameters
	Params DecoderParams
}

// DecoderParams defines the struct containing the parameters to use for
// decoding the output tensor
type DecoderParams struct {
	// ModelInputWidth is the pixel width of the input image the Model was
	// run on, the coordinate space of the output tensor
	ModelInputWidth int
	// ModelInputHeight is the pixel height of the Model input image
	ModelInputHeight int
	// GlobalMinConfidence is the floor a prediction's maximum class score
	// must exceed before its class rule is consulted
	GlobalMinConfidence float32
	// MinBoxSide rejects boxes with a width or height at or below this many
	// pixels
	MinBoxSide int
	// Classes holds the per class confidence and area ratio rules
	Classes ClassTable
	// Labels are the class names the Model was trained on.  The number of
	// labels sets the number of class rows expected in the tensor
	Labels []string
}

// DecoderCOCOParams returns an instance of DecoderParams configured with
// default values for a YOLOv8 Model trained on the COCO dataset featuring:
// - Model Input: 640x640
// - Global Min Confidence: 0.25
// - Min Box Side: 5 pixels
// - Object Classes: 80 with COCOClassTable rules
func DecoderCOCOParams() DecoderParams {
	return DecoderParams{
		ModelInputWidth:     640,
		ModelInputHeight:    640,
		GlobalMinConfidence: 0.25,
		MinBoxSide:          5,
		Classes:             COCOClassTable(),
		Labels:              COCOLabels,
	}
}

// NewDecoder returns an instance of the tensor decoder
func NewDecoder(p DecoderParams) *Decoder {
	return &Decoder{
		Params: p,
	}
}

// ClassCount returns the number of classes the decoder expects
func (d *Decoder) ClassCount() int {
	return len(d.Params.Labels)
}

// Decode takes the output tensor for a frame of the given pixel dimensions
// and returns the Candidates passing the class confidence and size filters.
// Candidates are returned in prediction order.  An *InputShapeError is
// returned, with no candidates, if the tensor does not have the shape
// [1, 4+C, P].
func (d *Decoder) Decode(t *Tensor, frameWidth, frameHeight int) ([]Candidate, error) {

	classCount := d.ClassCount()

	if t == nil {
		return nil, &InputShapeError{ClassCount: classCount, Reason: "nil tensor"}
	}

	if classCount < 1 {
		return nil, &InputShapeError{
			Shape:   append([]int(nil), t.Shape...),
			DataLen: len(t.Data),
			Reason:  "decoder has no class labels",
		}
	}

	if d.Params.ModelInputWidth <= 0 || d.Params.ModelInputHeight <= 0 {
		return nil, &InputShapeError{
			Shape:      append([]int(nil), t.Shape...),
			DataLen:    len(t.Data),
			ClassCount: classCount,
			Reason: fmt.Sprintf("model input size %dx%d is not positive",
				d.Params.ModelInputWidth, d.Params.ModelInputHeight),
		}
	}

	if err := t.validate(classCount); err != nil {
		return nil, err
	}

	numPreds := t.NumPredictions()

	if numPreds == 0 || frameWidth <= 0 || frameHeight <= 0 {
		return nil, nil
	}

	scaleX := float32(frameWidth) / float32(d.Params.ModelInputWidth)
	scaleY := float32(frameHeight) / float32(d.Params.ModelInputHeight)
	frameArea := float32(frameWidth) * float32(frameHeight)

	cands := make([]Candidate, 0)
	scores := make([]float64, classCount)

	for p := 0; p < numPreds; p++ {

		// gather class scores for this prediction, the first index is kept
		// when scores tie
		for c := 0; c < classCount; c++ {
			scores[c] = float64(t.Data[(boxAttrs+c)*numPreds+p])
		}

		classID := floats.MaxIdx(scores)
		maxScore := float32(scores[classID])

		if maxScore <= d.Params.GlobalMinConfidence {
			continue
		}

		if classID < 0 || classID >= classCount {
			continue
		}

		rule := d.Params.Classes.Lookup(classID)

		if maxScore <= rule.Confidence {
			continue
		}

		// convert from model coordinates to frame coordinates
		centerX := t.Data[0*numPreds+p] * scaleX
		centerY := t.Data[1*numPreds+p] * scaleY
		boxWidth := t.Data[2*numPreds+p] * scaleX
		boxHeight := t.Data[3*numPreds+p] * scaleY

		box := clipBox(BoxRect{
			X:      int(centerX - boxWidth/2.0),
			Y:      int(centerY - boxHeight/2.0),
			Width:  int(boxWidth),
			Height: int(boxHeight),
		}, frameWidth, frameHeight)

		if box.Width <= d.Params.MinBoxSide || box.Height <= d.Params.MinBoxSide {
			continue
		}

		areaRatio := float32(box.Area()) / frameArea

		if areaRatio <= rule.MinAreaRatio || areaRatio >= rule.MaxAreaRatio {
			continue
		}

		cands = append(cands, Candidate{
			Box:     box,
			Score:   maxScore,
			ClassID: classID,
		})
	}

	return cands, nil
}
