package postprocess

import (
	"sort"
)

// Suppressor runs class aware Non-Maximum Suppression over a frame's
// Candidates and names the survivors
type Suppressor struct {
	// Params are the NMS configuration parameters
	Params SuppressorParams
}

// SuppressorParams defines the struct containing the parameters to use for
// Non-Maximum Suppression
type SuppressorParams struct {
	// Classes holds the per class NMS thresholds
	Classes ClassTable
	// CrossClassIoU is the IoU above which a lower scoring box is suppressed
	// regardless of its class, treating near identical boxes with different
	// labels as the same object
	CrossClassIoU float32
	// Labels are the class names indexed by class ID
	Labels []string
}

// SuppressorCOCOParams returns an instance of SuppressorParams configured
// with default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80 with COCOClassTable NMS thresholds
// - Cross Class IoU: 0.8
func SuppressorCOCOParams() SuppressorParams {
	return SuppressorParams{
		Classes:       COCOClassTable(),
		CrossClassIoU: 0.8,
		Labels:        COCOLabels,
	}
}

// NewSuppressor returns an instance of the NMS processor
func NewSuppressor(p SuppressorParams) *Suppressor {
	return &Suppressor{
		Params: p,
	}
}

// Suppress removes duplicate Candidates and returns the surviving Detections
// ordered by score descending, ties keeping their input order.  Candidates
// with a class ID outside the label table are dropped before suppression and
// counted in dropped.
func (s *Suppressor) Suppress(cands []Candidate) (dets []Detection, dropped int) {

	// indexArray holds the positions of the valid candidates in score order
	indexArray := make([]int, 0, len(cands))

	for i, c := range cands {
		if c.ClassID < 0 || c.ClassID >= len(s.Params.Labels) {
			dropped++
			continue
		}
		indexArray = append(indexArray, i)
	}

	sort.SliceStable(indexArray, func(a, b int) bool {
		return cands[indexArray[a]].Score > cands[indexArray[b]].Score
	})

	removed := make([]bool, len(indexArray))
	dets = make([]Detection, 0, len(indexArray))

	for i := 0; i < len(indexArray); i++ {

		if removed[i] {
			continue
		}

		cur := cands[indexArray[i]]

		dets = append(dets, Detection{
			Label: s.Params.Labels[cur.ClassID],
			Score: cur.Score,
			Box:   cur.Box,
		})

		nmsThreshold := s.Params.Classes.Lookup(cur.ClassID).NMSThreshold

		for j := i + 1; j < len(indexArray); j++ {

			if removed[j] {
				continue
			}

			other := cands[indexArray[j]]
			iou := calculateOverlap(cur.Box, other.Box)

			if other.ClassID == cur.ClassID && iou > nmsThreshold {
				removed[j] = true
			} else if iou > s.Params.CrossClassIoU {
				removed[j] = true
			}
		}
	}

	return dets, dropped
}
