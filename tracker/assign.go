package tracker

import (
	"github.com/swdee/go-vistrack/postprocess"
	"gonum.org/v1/gonum/mat"
)

// noMatchCost is the cost given to track and detection pairs that may not
// be matched, it is above any real 1-IoU cost
const noMatchCost = 2.0

// matchOptimal returns track ID to detection index matches from the globally
// optimal assignment of same label pairs, minimising the summed 1-IoU cost.
// Pairs at or below the match IoU are never returned
func (s *TrackStore) matchOptimal(dets []postprocess.Detection) map[int]int {

	matches := make(map[int]int)

	if len(s.ids) == 0 || len(dets) == 0 {
		return matches
	}

	cost := s.costMatrix(dets)
	costLimit := 1 - float64(s.params.MatchIoU)

	rowsol, _, err := solveAssignment(cost, costLimit)

	if err != nil {
		// solver failure falls back to greedy matching
		return s.matchGreedy(dets)
	}

	for row, col := range rowsol {

		if col < 0 {
			continue
		}

		track := s.tracks[s.ids[row]]

		if dets[col].Label != track.Label ||
			track.Box.IoU(dets[col].Box) <= s.params.MatchIoU {
			continue
		}

		matches[track.ID] = col
	}

	return matches
}

// costMatrix builds the tracks x detections 1-IoU cost matrix with tracks in
// ascending ID order
func (s *TrackStore) costMatrix(dets []postprocess.Detection) *mat.Dense {

	cost := mat.NewDense(len(s.ids), len(dets), nil)

	for r, id := range s.ids {

		track := s.tracks[id]

		for c, det := range dets {

			if det.Label != track.Label {
				cost.Set(r, c, noMatchCost)
				continue
			}

			iou := track.Box.IoU(det.Box)

			if iou <= s.params.MatchIoU {
				cost.Set(r, c, noMatchCost)
				continue
			}

			cost.Set(r, c, 1-float64(iou))
		}
	}

	return cost
}
