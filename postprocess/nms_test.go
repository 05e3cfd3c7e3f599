package postprocess

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuppressPersonOverlap(t *testing.T) {

	s := NewSuppressor(SuppressorCOCOParams())

	cands := []Candidate{
		{Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 60}, Score: 0.7, ClassID: 0},
		{Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 100}, Score: 0.9, ClassID: 0},
	}

	require.InDelta(t, 0.6, cands[0].Box.IoU(cands[1].Box), 1e-6)

	dets, dropped := s.Suppress(cands)
	assert.Zero(t, dropped)

	want := []Detection{
		{Label: "person", Score: 0.9, Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 100}},
	}

	if diff := cmp.Diff(want, dets); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
}

func TestSuppressClassThresholds(t *testing.T) {

	s := NewSuppressor(SuppressorCOCOParams())

	big := BoxRect{X: 0, Y: 0, Width: 100, Height: 100}
	// IoU of 0.6 with big
	part := BoxRect{X: 0, Y: 0, Width: 100, Height: 60}
	// IoU of 0.9 with big
	near := BoxRect{X: 0, Y: 0, Width: 100, Height: 90}

	tests := []struct {
		name  string
		cands []Candidate
		want  int
	}{
		{
			name: "chairs above furniture threshold",
			cands: []Candidate{
				{Box: big, Score: 0.9, ClassID: 56},
				{Box: part, Score: 0.8, ClassID: 56},
			},
			want: 1,
		},
		{
			name: "tvs at electronics threshold survive",
			cands: []Candidate{
				{Box: big, Score: 0.9, ClassID: 62},
				{Box: part, Score: 0.8, ClassID: 62},
			},
			want: 2,
		},
		{
			name: "different classes below cross class ceiling survive",
			cands: []Candidate{
				{Box: big, Score: 0.9, ClassID: 0},
				{Box: part, Score: 0.8, ClassID: 24},
			},
			want: 2,
		},
		{
			name: "different classes above cross class ceiling suppressed",
			cands: []Candidate{
				{Box: big, Score: 0.9, ClassID: 62},
				{Box: near, Score: 0.8, ClassID: 63},
			},
			want: 1,
		},
		{
			name: "disjoint boxes survive",
			cands: []Candidate{
				{Box: big, Score: 0.9, ClassID: 0},
				{Box: BoxRect{X: 200, Y: 200, Width: 50, Height: 50}, Score: 0.8, ClassID: 0},
			},
			want: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dets, _ := s.Suppress(tc.cands)
			assert.Len(t, dets, tc.want)
			assert.Equal(t, float32(0.9), dets[0].Score)
		})
	}
}

func TestSuppressStableOrder(t *testing.T) {

	s := NewSuppressor(SuppressorCOCOParams())

	cands := []Candidate{
		{Box: BoxRect{X: 0, Y: 0, Width: 20, Height: 20}, Score: 0.5, ClassID: 39},
		{Box: BoxRect{X: 100, Y: 0, Width: 20, Height: 20}, Score: 0.5, ClassID: 41},
		{Box: BoxRect{X: 200, Y: 0, Width: 20, Height: 20}, Score: 0.8, ClassID: 45},
	}

	dets, _ := s.Suppress(cands)
	require.Len(t, dets, 3)

	assert.Equal(t, "bowl", dets[0].Label)
	assert.Equal(t, "bottle", dets[1].Label)
	assert.Equal(t, "cup", dets[2].Label)
}

func TestSuppressDropsUnknownClass(t *testing.T) {

	s := NewSuppressor(SuppressorCOCOParams())

	cands := []Candidate{
		{Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 100}, Score: 0.95, ClassID: 80},
		{Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 100}, Score: 0.9, ClassID: -1},
		{Box: BoxRect{X: 0, Y: 0, Width: 100, Height: 95}, Score: 0.6, ClassID: 0},
	}

	dets, dropped := s.Suppress(cands)

	assert.Equal(t, 2, dropped)
	require.Len(t, dets, 1)
	assert.Equal(t, "person", dets[0].Label)
}

func TestSuppressEmpty(t *testing.T) {

	s := NewSuppressor(SuppressorCOCOParams())

	dets, dropped := s.Suppress(nil)
	assert.Empty(t, dets)
	assert.Zero(t, dropped)
}

// TestSuppressNoSameLabelOverlap checks over random frames that no two
// surviving detections of a label overlap above that label's threshold
func TestSuppressNoSameLabelOverlap(t *testing.T) {

	p := SuppressorCOCOParams()
	s := NewSuppressor(p)

	labelIdx := make(map[string]int)
	for i, l := range p.Labels {
		labelIdx[l] = i
	}

	// restrict to a handful of classes with differing thresholds
	classes := []int{0, 2, 56, 62, 39}

	rng := rand.New(rand.NewSource(42))

	for frame := 0; frame < 50; frame++ {

		cands := make([]Candidate, 0, 60)

		for i := 0; i < 60; i++ {
			cands = append(cands, Candidate{
				Box: BoxRect{
					X:      rng.Intn(200),
					Y:      rng.Intn(200),
					Width:  20 + rng.Intn(80),
					Height: 20 + rng.Intn(80),
				},
				Score:   rng.Float32(),
				ClassID: classes[rng.Intn(len(classes))],
			})
		}

		dets, _ := s.Suppress(cands)

		for i := range dets {
			for j := i + 1; j < len(dets); j++ {
				iou := dets[i].Box.IoU(dets[j].Box)

				assert.LessOrEqual(t, iou, p.CrossClassIoU)

				if dets[i].Label != dets[j].Label {
					continue
				}

				thresh := p.Classes.Lookup(labelIdx[dets[i].Label]).NMSThreshold
				assert.LessOrEqualf(t, iou, thresh, "frame %d: %s overlap", frame, dets[i].Label)
			}
		}
	}
}

func TestDecodeSuppressDeterministic(t *testing.T) {

	d := NewDecoder(squareParams())
	s := NewSuppressor(SuppressorParams{
		Classes:       squareParams().Classes,
		CrossClassIoU: 0.8,
		Labels:        squareParams().Labels,
	})

	cols := []column{
		{cx: 30, cy: 30, w: 20, h: 30, scores: map[int]float32{0: 0.8}},
		{cx: 31, cy: 30, w: 20, h: 30, scores: map[int]float32{0: 0.7}},
		{cx: 70, cy: 60, w: 25, h: 25, scores: map[int]float32{2: 0.5}},
		{cx: 70, cy: 61, w: 25, h: 25, scores: map[int]float32{1: 0.5}},
	}

	run := func() []Detection {
		cands, err := d.Decode(newTestTensor(3, cols), 100, 100)
		require.NoError(t, err)
		dets, _ := s.Suppress(cands)
		return dets
	}

	first := run()
	second := run()

	assert.Len(t, first, 2)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("decode and suppress not deterministic (-first +second):\n%s", diff)
	}
}
