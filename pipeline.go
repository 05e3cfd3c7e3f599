package vistrack

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swdee/go-vistrack/postprocess"
	"github.com/swdee/go-vistrack/tracker"
)

// ErrEmptyFrame is returned by ProcessFrame when there is no tensor or the
// frame has no area.  Tracks still age by one frame
var ErrEmptyFrame = errors.New("empty frame")

// PipelineParams holds the parameters of each pipeline stage
type PipelineParams struct {
	Decoder    postprocess.DecoderParams
	Suppressor postprocess.SuppressorParams
	Tracker    tracker.TrackerParams
}

// DefaultPipelineParams returns the parameters for a YOLOv8 Model trained on
// the COCO dataset
func DefaultPipelineParams() PipelineParams {
	return PipelineParams{
		Decoder:    postprocess.DecoderCOCOParams(),
		Suppressor: postprocess.SuppressorCOCOParams(),
		Tracker:    tracker.TrackerDefaultParams(),
	}
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger, the default discards all output
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the collectors the pipeline records to
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline decodes, suppresses and tracks the frames of a single video
// stream.  Frames must be processed in order and ProcessFrame must not be
// called concurrently
type Pipeline struct {
	id         string
	decoder    *postprocess.Decoder
	suppressor *postprocess.Suppressor
	tracks     *tracker.TrackStore
	log        *zap.Logger
	metrics    *Metrics
	// active is the track count last reported to the shared gauge
	active int
}

// NewPipeline returns a Pipeline with an empty TrackStore
func NewPipeline(p PipelineParams, opts ...Option) (*Pipeline, error) {

	if len(p.Decoder.Labels) == 0 {
		return nil, errors.New("decoder has no class labels")
	}

	if len(p.Suppressor.Labels) != len(p.Decoder.Labels) {
		return nil, fmt.Errorf("suppressor has %d labels, decoder has %d",
			len(p.Suppressor.Labels), len(p.Decoder.Labels))
	}

	if p.Decoder.ModelInputWidth <= 0 || p.Decoder.ModelInputHeight <= 0 {
		return nil, fmt.Errorf("invalid model input size %dx%d",
			p.Decoder.ModelInputWidth, p.Decoder.ModelInputHeight)
	}

	pl := &Pipeline{
		id:         uuid.NewString(),
		decoder:    postprocess.NewDecoder(p.Decoder),
		suppressor: postprocess.NewSuppressor(p.Suppressor),
		tracks:     tracker.NewTrackStore(p.Tracker),
		log:        zap.NewNop(),
	}

	for _, opt := range opts {
		opt(pl)
	}

	pl.log = pl.log.With(zap.String("pipeline", pl.id))

	return pl, nil
}

// ProcessFrame runs the output tensor for a frame of the given pixel size
// through decoding, NMS and tracking and returns the stabilized detections.
// A tensor of the wrong shape returns an error wrapping an
// *postprocess.InputShapeError and leaves the tracks untouched.
func (p *Pipeline) ProcessFrame(t *postprocess.Tensor, frameWidth,
	frameHeight int) ([]postprocess.Detection, error) {

	start := time.Now()

	if t == nil || frameWidth <= 0 || frameHeight <= 0 {

		p.log.Debug("Empty frame, ageing tracks",
			zap.Int("width", frameWidth), zap.Int("height", frameHeight))

		p.tracks.UpdateTracks(nil)
		p.record(frameEmpty, start, 0, 0, 0)

		return nil, ErrEmptyFrame
	}

	cands, err := p.decoder.Decode(t, frameWidth, frameHeight)

	if err != nil {
		p.log.Warn("Frame tensor rejected", zap.Error(err))
		p.record(frameError, start, 0, 0, 0)

		return nil, fmt.Errorf("error decoding frame: %w", err)
	}

	dets, dropped := p.suppressor.Suppress(cands)

	if dropped > 0 {
		p.log.Debug("Dropped candidates",
			zap.Int("count", dropped),
			zap.Error(postprocess.ErrClassIndexOutOfRange))
	}

	out := p.tracks.UpdateTracks(dets)

	p.log.Debug("Frame processed",
		zap.Int("candidates", len(cands)),
		zap.Int("detections", len(dets)),
		zap.Int("tracked", len(out)),
		zap.Int("active", p.tracks.Len()))

	p.record(frameOK, start, len(cands), dropped, len(out))

	return out, nil
}

// record updates the metrics for a frame
func (p *Pipeline) record(result string, start time.Time, cands, dropped,
	dets int) {

	if p.metrics == nil {
		return
	}

	m := p.metrics
	m.frames.WithLabelValues(result).Inc()
	m.frameDuration.Observe(time.Since(start).Seconds())

	if result == frameError {
		return
	}

	stats := p.tracks.LastUpdate()

	m.candidates.Add(float64(cands))
	m.dropped.Add(float64(dropped))
	m.detections.Add(float64(dets))
	m.tracksCreated.Add(float64(stats.Created))
	m.tracksEvicted.Add(float64(stats.Evicted))
	p.setActive(stats.Active)
}

// setActive moves the shared active track gauge by this pipeline's change
func (p *Pipeline) setActive(n int) {
	if p.metrics != nil {
		p.metrics.tracksActive.Add(float64(n - p.active))
	}
	p.active = n
}

// Tracks returns a snapshot of the tracks held in ascending ID order
func (p *Pipeline) Tracks() []tracker.TrackedObject {
	return p.tracks.Snapshot()
}

// Reset drops all tracks, for example when a video loops back to its start
func (p *Pipeline) Reset() {
	p.tracks.Reset()
	p.setActive(0)
}

// Close releases the pipeline's share of the active track gauge
func (p *Pipeline) Close() {
	p.setActive(0)
}

// Labels returns the class labels of the Model
func (p *Pipeline) Labels() []string {
	return p.decoder.Params.Labels
}

// ID returns the unique pipeline ID used in its log entries
func (p *Pipeline) ID() string {
	return p.id
}
