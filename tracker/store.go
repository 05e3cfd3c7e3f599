package tracker

import (
	"fmt"

	"github.com/swdee/go-vistrack/postprocess"
)

// MatchMode selects how tracks are associated with a frame's detections
type MatchMode int

const (
	// MatchGreedy lets each track, in ascending ID order, claim the same
	// label detection it overlaps most
	MatchGreedy MatchMode = iota
	// MatchOptimal solves a global same label assignment minimising the
	// total 1-IoU cost with LAPJV
	MatchOptimal
)

// String returns the config name of the match mode
func (m MatchMode) String() string {
	switch m {
	case MatchGreedy:
		return "greedy"
	case MatchOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode returns the MatchMode for its config name
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "greedy":
		return MatchGreedy, nil
	case "optimal":
		return MatchOptimal, nil
	default:
		return MatchGreedy, fmt.Errorf("unknown match mode %q", s)
	}
}

// TrackerParams defines the struct containing the parameters to use for
// tracking
type TrackerParams struct {
	// MatchIoU is the IoU a detection must exceed to be matched to a track
	MatchIoU float32
	// MaxMissedFrames is the number of consecutive missed frames a track
	// survives.  It is evicted on the frame its miss count exceeds this
	MaxMissedFrames int
	// SmoothingAlpha is the weight given to the new detection box when
	// smoothing a matched track, the old box gets 1-SmoothingAlpha
	SmoothingAlpha float32
	// Mode is the track to detection association strategy
	Mode MatchMode
}

// TrackerDefaultParams returns an instance of TrackerParams with default
// values:
// - Match IoU: 0.3
// - Max Missed Frames: 5
// - Smoothing Alpha: 0.3
// - Mode: greedy
func TrackerDefaultParams() TrackerParams {
	return TrackerParams{
		MatchIoU:        0.3,
		MaxMissedFrames: 5,
		SmoothingAlpha:  0.3,
		Mode:            MatchGreedy,
	}
}

// UpdateStats are the counts from the most recent UpdateTracks call
type UpdateStats struct {
	// Matched is the number of tracks matched to a detection
	Matched int
	// Created is the number of new tracks spawned
	Created int
	// Evicted is the number of tracks removed for missing too many frames
	Evicted int
	// Active is the number of tracks held after the update
	Active int
}

// TrackStore keeps persistent object identities across frames and smooths
// their boxes.  It is not safe for concurrent use
type TrackStore struct {
	params TrackerParams
	tracks map[int]*TrackedObject
	// ids holds the track IDs in ascending order
	ids   []int
	idGen idGenerator
	last  UpdateStats
}

// NewTrackStore returns an empty TrackStore
func NewTrackStore(p TrackerParams) *TrackStore {
	return &TrackStore{
		params: p,
		tracks: make(map[int]*TrackedObject),
	}
}

// Params returns the parameters the store was created with
func (s *TrackStore) Params() TrackerParams {
	return s.params
}

// UpdateTracks associates the frame's detections with existing tracks and
// returns the stabilized detections.  Matched tracks are emitted first in
// ascending ID order with their smoothed box, followed by detections that
// started a new track in input order.  Tracks without a match this frame
// emit nothing.
func (s *TrackStore) UpdateTracks(dets []postprocess.Detection) []postprocess.Detection {

	stats := UpdateStats{}
	out := make([]postprocess.Detection, 0, len(dets))

	for _, id := range s.ids {
		s.tracks[id].MissedFrames++
	}

	var matches map[int]int

	if s.params.Mode == MatchOptimal {
		matches = s.matchOptimal(dets)
	} else {
		matches = s.matchGreedy(dets)
	}

	used := make([]bool, len(dets))

	for _, id := range s.ids {

		di, ok := matches[id]

		if !ok {
			continue
		}

		track := s.tracks[id]
		det := dets[di]
		used[di] = true

		track.smooth(det.Box, s.params.SmoothingAlpha)
		track.Confidence = det.Score
		track.MissedFrames = 0

		out = append(out, track.detection())
		stats.Matched++
	}

	// evict stale tracks keeping the remaining ids in order
	kept := s.ids[:0]

	for _, id := range s.ids {
		if s.tracks[id].MissedFrames > s.params.MaxMissedFrames {
			delete(s.tracks, id)
			stats.Evicted++
			continue
		}
		kept = append(kept, id)
	}

	s.ids = kept

	for i, det := range dets {

		if used[i] {
			continue
		}

		id := s.idGen.getNext()

		s.tracks[id] = &TrackedObject{
			ID:         id,
			Box:        det.Box,
			Label:      det.Label,
			Confidence: det.Score,
		}
		s.ids = append(s.ids, id)

		out = append(out, det)
		stats.Created++
	}

	stats.Active = len(s.ids)
	s.last = stats

	return out
}

// matchGreedy returns track ID to detection index matches where each track,
// in ascending ID order, takes the unconsumed same label detection with the
// greatest IoU above the match threshold.  Ties keep the earliest detection
func (s *TrackStore) matchGreedy(dets []postprocess.Detection) map[int]int {

	matches := make(map[int]int)
	consumed := make([]bool, len(dets))

	for _, id := range s.ids {

		track := s.tracks[id]
		best := -1
		bestIoU := s.params.MatchIoU

		for i, det := range dets {

			if consumed[i] || det.Label != track.Label {
				continue
			}

			if iou := track.Box.IoU(det.Box); iou > bestIoU {
				bestIoU = iou
				best = i
			}
		}

		if best >= 0 {
			consumed[best] = true
			matches[id] = best
		}
	}

	return matches
}

// Snapshot returns a copy of every track in ascending ID order
func (s *TrackStore) Snapshot() []TrackedObject {

	snap := make([]TrackedObject, 0, len(s.ids))

	for _, id := range s.ids {
		snap = append(snap, *s.tracks[id])
	}

	return snap
}

// Len returns the number of tracks held
func (s *TrackStore) Len() int {
	return len(s.ids)
}

// NextID returns the ID the next new track will be given
func (s *TrackStore) NextID() int {
	return s.idGen.peek()
}

// LastUpdate returns the counts from the most recent UpdateTracks call
func (s *TrackStore) LastUpdate() UpdateStats {
	return s.last
}

// Reset drops all tracks.  The ID counter carries on so IDs issued before
// the reset are never reused
func (s *TrackStore) Reset() {
	s.tracks = make(map[int]*TrackedObject)
	s.ids = nil
	s.last = UpdateStats{}
}
