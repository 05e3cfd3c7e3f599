package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-vistrack/postprocess"
)

func box(x, y, w, h int) postprocess.BoxRect {
	return postprocess.BoxRect{X: x, Y: y, Width: w, Height: h}
}

func det(label string, score float32, b postprocess.BoxRect) postprocess.Detection {
	return postprocess.Detection{Label: label, Score: score, Box: b}
}

func TestUpdateTracksSmoothing(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	out := s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(100, 100, 50, 50)),
	})
	require.Len(t, out, 1)
	assert.Equal(t, box(100, 100, 50, 50), out[0].Box)

	out = s.UpdateTracks([]postprocess.Detection{
		det("person", 0.8, box(110, 110, 60, 60)),
	})

	want := []postprocess.Detection{
		det("person", 0.8, box(103, 103, 53, 53)),
	}

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("smoothed detections mismatch (-want +got):\n%s", diff)
	}

	// truncation toward zero on the next blend
	out = s.UpdateTracks([]postprocess.Detection{
		det("person", 0.7, box(110, 110, 60, 60)),
	})
	require.Len(t, out, 1)
	assert.Equal(t, box(105, 105, 55, 55), out[0].Box)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0, snap[0].ID)
	assert.Equal(t, float32(0.7), snap[0].Confidence)
	assert.Zero(t, snap[0].MissedFrames)
}

func TestUpdateTracksStationaryBoxHolds(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())
	d := det("person", 0.9, box(23, 46, 92, 184))

	for f := 0; f < 6; f++ {
		out := s.UpdateTracks([]postprocess.Detection{d})
		require.Lenf(t, out, 1, "frame %d", f)
		assert.Equalf(t, d.Box, out[0].Box, "frame %d", f)
	}
}

func TestSmoothSelfBlend(t *testing.T) {

	for v := 0; v < 5000; v++ {
		obj := TrackedObject{Box: box(v, v, v, v)}
		obj.smooth(box(v, v, v, v), 0.3)

		if obj.Box != box(v, v, v, v) {
			t.Fatalf("box of %d blended with itself became %v", v, obj.Box)
		}
	}

	// mixed values truncate the exact blend
	obj := TrackedObject{Box: box(1, 100, 50, 53)}
	obj.smooth(box(441, 110, 60, 60), 0.3)
	assert.Equal(t, box(133, 103, 53, 55), obj.Box)
}

func TestUpdateTracksEviction(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())
	d := det("cup", 0.6, box(10, 10, 40, 40))

	// matched for three frames
	for f := 1; f <= 3; f++ {
		out := s.UpdateTracks([]postprocess.Detection{d})
		require.Lenf(t, out, 1, "frame %d", f)
	}

	// missed frames, retained up to the threshold but not emitted
	for miss := 1; miss <= 5; miss++ {
		out := s.UpdateTracks(nil)
		assert.Emptyf(t, out, "miss %d", miss)
		require.Equalf(t, 1, s.Len(), "miss %d", miss)
		assert.Equal(t, miss, s.Snapshot()[0].MissedFrames)
	}

	// sixth miss exceeds the threshold
	out := s.UpdateTracks(nil)
	assert.Empty(t, out)
	assert.Zero(t, s.Len())
	assert.Equal(t, UpdateStats{Evicted: 1}, s.LastUpdate())
}

func TestUpdateTracksRecoverBeforeEviction(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())
	d := det("cup", 0.6, box(10, 10, 40, 40))

	s.UpdateTracks([]postprocess.Detection{d})

	for miss := 1; miss <= 5; miss++ {
		s.UpdateTracks(nil)
	}

	out := s.UpdateTracks([]postprocess.Detection{d})
	require.Len(t, out, 1)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0, snap[0].ID)
	assert.Zero(t, snap[0].MissedFrames)
	assert.Equal(t, 1, s.NextID())
}

func TestUpdateTracksIDsSequential(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	// every frame shows objects in new places so each spawns a track
	total := 0

	for f := 0; f < 4; f++ {
		var dets []postprocess.Detection

		for i := 0; i <= f; i++ {
			dets = append(dets, det("car", 0.5, box(f*1000+i*100, 0, 50, 50)))
		}

		s.UpdateTracks(dets)
		total += len(dets)
	}

	assert.Equal(t, total, s.NextID())

	seen := make(map[int]bool)
	for _, tr := range s.Snapshot() {
		assert.False(t, seen[tr.ID])
		seen[tr.ID] = true
	}

	for id := 0; id < total; id++ {
		assert.Truef(t, seen[id], "id %d not issued", id)
	}
}

func TestUpdateTracksEmptyFrameAges(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(0, 0, 50, 50)),
		det("dog", 0.8, box(200, 200, 50, 50)),
	})

	out := s.UpdateTracks([]postprocess.Detection{})
	assert.Empty(t, out)

	for _, tr := range s.Snapshot() {
		assert.Equal(t, 1, tr.MissedFrames)
	}

	assert.Equal(t, UpdateStats{Active: 2}, s.LastUpdate())
}

func TestUpdateTracksLabelMustMatch(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	s.UpdateTracks([]postprocess.Detection{det("chair", 0.5, box(0, 0, 100, 100))})
	out := s.UpdateTracks([]postprocess.Detection{det("couch", 0.5, box(0, 0, 100, 100))})

	require.Len(t, out, 1)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, UpdateStats{Created: 1, Active: 2}, s.LastUpdate())
}

func TestUpdateTracksOutputOrder(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(0, 0, 50, 50)),
		det("person", 0.9, box(500, 0, 50, 50)),
	})

	// new detection first in input, then the two known objects in reverse
	out := s.UpdateTracks([]postprocess.Detection{
		det("person", 0.6, box(250, 250, 50, 50)),
		det("person", 0.7, box(500, 0, 50, 50)),
		det("person", 0.8, box(0, 0, 50, 50)),
	})

	want := []postprocess.Detection{
		det("person", 0.8, box(0, 0, 50, 50)),
		det("person", 0.7, box(500, 0, 50, 50)),
		det("person", 0.6, box(250, 250, 50, 50)),
	}

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output order mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, UpdateStats{Matched: 2, Created: 1, Active: 3}, s.LastUpdate())
}

func TestUpdateTracksIoUThreshold(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	s.UpdateTracks([]postprocess.Detection{det("person", 0.9, box(0, 0, 100, 100))})

	// IoU of 0.25 with the track is below the match threshold
	out := s.UpdateTracks([]postprocess.Detection{det("person", 0.9, box(0, 0, 100, 25))})

	require.Len(t, out, 1)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Snapshot()[0].MissedFrames)
}

// contested sets up two tracks where the greedy first track takes the
// detection the second track needs
func contested(t *testing.T, mode MatchMode) (*TrackStore, []postprocess.Detection) {

	p := TrackerDefaultParams()
	p.Mode = mode
	s := NewTrackStore(p)

	s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(0, 0, 100, 100)),
		det("person", 0.9, box(40, 0, 100, 100)),
	})
	require.Equal(t, 2, s.Len())

	out := s.UpdateTracks([]postprocess.Detection{
		// IoU 0.6 with track 0, 0.74 with track 1
		det("person", 0.8, box(25, 0, 100, 100)),
		// IoU 0.43 with track 0, 0.22 with track 1
		det("person", 0.7, box(0, 40, 100, 100)),
	})

	return s, out
}

func TestMatchGreedyContested(t *testing.T) {

	s, out := contested(t, MatchGreedy)

	want := []postprocess.Detection{
		det("person", 0.8, box(7, 0, 100, 100)),
		det("person", 0.7, box(0, 40, 100, 100)),
	}

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("greedy mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, UpdateStats{Matched: 1, Created: 1, Active: 3}, s.LastUpdate())
}

func TestMatchOptimalContested(t *testing.T) {

	s, out := contested(t, MatchOptimal)

	want := []postprocess.Detection{
		det("person", 0.7, box(0, 12, 100, 100)),
		det("person", 0.8, box(35, 0, 100, 100)),
	}

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("optimal mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.NextID())
	assert.Equal(t, UpdateStats{Matched: 2, Active: 2}, s.LastUpdate())
}

func TestMatchOptimalRejectsLowIoU(t *testing.T) {

	p := TrackerDefaultParams()
	p.Mode = MatchOptimal
	s := NewTrackStore(p)

	s.UpdateTracks([]postprocess.Detection{det("person", 0.9, box(0, 0, 100, 100))})
	out := s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(0, 0, 100, 25)),
		det("dog", 0.9, box(0, 0, 100, 100)),
	})

	assert.Len(t, out, 2)
	assert.Equal(t, UpdateStats{Created: 2, Active: 3}, s.LastUpdate())
}

func TestResetKeepsIDCounter(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())

	s.UpdateTracks([]postprocess.Detection{
		det("person", 0.9, box(0, 0, 50, 50)),
		det("person", 0.9, box(100, 0, 50, 50)),
	})

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Snapshot())

	s.UpdateTracks([]postprocess.Detection{det("person", 0.9, box(0, 0, 50, 50))})
	assert.Equal(t, 2, s.Snapshot()[0].ID)
}

func TestSnapshotIsCopy(t *testing.T) {

	s := NewTrackStore(TrackerDefaultParams())
	s.UpdateTracks([]postprocess.Detection{det("person", 0.9, box(0, 0, 50, 50))})

	snap := s.Snapshot()
	snap[0].Box = box(1, 1, 1, 1)

	assert.Equal(t, box(0, 0, 50, 50), s.Snapshot()[0].Box)
}

func TestParseMatchMode(t *testing.T) {

	m, err := ParseMatchMode("optimal")
	require.NoError(t, err)
	assert.Equal(t, MatchOptimal, m)
	assert.Equal(t, "optimal", m.String())

	m, err = ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchGreedy, m)

	_, err = ParseMatchMode("hungarian")
	assert.Error(t, err)
}
