package tracker

import "sync"

// Point is the x,y pixel coordinates of the centre of a track's box
type Point struct {
	X, Y int
}

// Track represents a track history
type Track struct {
	points []Point
}

// Trail keeps the recent centre points of each track for drawing its
// motion trail.  It is safe for concurrent use
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points
	history map[int]*Track
	sync.Mutex
}

// NewTrail returns a new trail history track instance.  Size is the number
// of most recent trails to keep and specifies the maximum length of the trail
// to maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int]*Track),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int]*Track)
}

// Update records the centre point of every track matched this frame from a
// TrackStore snapshot and forgets the history of tracks no longer held
func (t *Trail) Update(snapshot []TrackedObject) {
	t.Lock()
	defer t.Unlock()

	live := make(map[int]struct{}, len(snapshot))

	for _, obj := range snapshot {

		live[obj.ID] = struct{}{}

		// coasting tracks keep their last box so add nothing
		if obj.MissedFrames > 0 {
			continue
		}

		track, exists := t.history[obj.ID]

		if !exists {
			track = &Track{}
			t.history[obj.ID] = track
		}

		track.points = append(track.points, Point{
			X: obj.Box.X + obj.Box.Width/2,
			Y: obj.Box.Y + obj.Box.Height/2,
		})

		// check if history is exceeded and drop oldest point
		if len(track.points) > t.size {
			track.points = track.points[1:]
		}
	}

	for id := range t.history {
		if _, ok := live[id]; !ok {
			delete(t.history, id)
		}
	}
}

// GetPoints gets the point history for a specific track id
func (t *Trail) GetPoints(id int) []Point {
	t.Lock()
	defer t.Unlock()

	if track, exists := t.history[id]; exists {
		return append([]Point(nil), track.points...)
	}

	// no history yet
	return nil
}
