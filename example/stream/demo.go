package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swdee/go-vistrack"
	"github.com/swdee/go-vistrack/config"
	"github.com/swdee/go-vistrack/inference"
	"github.com/swdee/go-vistrack/postprocess"
	"github.com/swdee/go-vistrack/preprocess"
	"github.com/swdee/go-vistrack/render"
	"github.com/swdee/go-vistrack/tracker"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// FPS is the rate frames are played back to each client
	FPS         = 30
	FPSinterval = time.Duration(float64(time.Second) / float64(FPS))
)

// maxBufferFrames caps the frames buffered from a camera source
const maxBufferFrames = FPS * 60

var errPoolClosed = errors.New("inference pool closed")

// Demo plays a buffered video to each connected client with the detections
// of a per client Pipeline drawn on every frame
type Demo struct {
	// vidBuffer buffers the video frames into memory
	vidBuffer []gocv.Mat
	// pool of engines shared by all streams
	pool    *inference.Pool
	cfg     *config.Config
	labels  []string
	metrics *vistrack.Metrics
	log     *zap.Logger

	mu sync.Mutex
	// streams hold the latest track snapshot of each connected client by
	// pipeline ID
	streams map[string][]tracker.TrackedObject
}

// NewDemo returns a Demo with the video source buffered
func NewDemo(cfg *config.Config, pool *inference.Pool, labels []string,
	metrics *vistrack.Metrics, log *zap.Logger) *Demo {

	return &Demo{
		pool:    pool,
		cfg:     cfg,
		labels:  labels,
		metrics: metrics,
		log:     log,
		streams: make(map[string][]tracker.TrackedObject),
	}
}

// bufferVideo reads in the frames of a video file or camera and saves them
// to a buffer
func (d *Demo) bufferVideo(source string) error {

	video, err := gocv.OpenVideoCapture(source)

	if err != nil {
		return fmt.Errorf("error opening video source %s: %w", source, err)
	}

	defer video.Close()

	for len(d.vidBuffer) < maxBufferFrames {
		img := gocv.NewMat()

		// read the next frame from the video
		if ok := video.Read(&img); !ok {
			img.Close()
			break
		}

		if img.Empty() {
			img.Close()
			continue
		}

		d.vidBuffer = append(d.vidBuffer, img)
	}

	if len(d.vidBuffer) == 0 {
		return fmt.Errorf("no frames read from video source %s", source)
	}

	d.log.Info("Buffered video",
		zap.String("source", source),
		zap.Int("frames", len(d.vidBuffer)),
		zap.Int("width", d.vidBuffer[0].Cols()),
		zap.Int("height", d.vidBuffer[0].Rows()))

	return nil
}

// Close frees the buffered frames
func (d *Demo) Close() {
	for _, img := range d.vidBuffer {
		img.Close()
	}
	d.vidBuffer = nil
}

// newPipeline creates the Pipeline for a new client and registers it with
// no tracks
func (d *Demo) newPipeline() (*vistrack.Pipeline, error) {

	params := vistrack.PipelineParams{
		Decoder:    d.cfg.DecoderParams(d.labels),
		Suppressor: d.cfg.SuppressorParams(d.labels),
		Tracker:    d.cfg.TrackerParams(),
	}

	p, err := vistrack.NewPipeline(params,
		vistrack.WithLogger(d.log), vistrack.WithMetrics(d.metrics))

	if err != nil {
		return nil, err
	}

	d.publish(p.ID(), nil)

	return p, nil
}

// publish records the latest track snapshot of a stream
func (d *Demo) publish(id string, tracks []tracker.TrackedObject) {
	d.mu.Lock()
	d.streams[id] = tracks
	d.mu.Unlock()
}

// removePipeline unregisters a client's Pipeline
func (d *Demo) removePipeline(p *vistrack.Pipeline) {
	d.mu.Lock()
	delete(d.streams, p.ID())
	d.mu.Unlock()

	p.Close()
}

// streamState is the per client state carried between frames
type streamState struct {
	pipeline *vistrack.Pipeline
	resizer  *preprocess.Resizer
	trail    *tracker.Trail
	showIDs  bool
	fps      float64
}

// Stream is the handler used to stream annotated video frames to the browser
// as MJPEG.  Adding ?ids=1 draws track IDs instead of confidence scores
func (d *Demo) Stream(c *gin.Context) {

	p, err := d.newPipeline()

	if err != nil {
		d.log.Error("Error creating pipeline", zap.Error(err))
		c.AbortWithStatus(500)
		return
	}

	defer d.removePipeline(p)

	log := d.log.With(zap.String("pipeline", p.ID()))
	log.Info("New client connection established",
		zap.String("remote", c.ClientIP()))

	resizer := preprocess.NewResizer(d.vidBuffer[0].Cols(), d.vidBuffer[0].Rows(),
		d.cfg.Model.InputWidth, d.cfg.Model.InputHeight)

	state := &streamState{
		pipeline: p,
		resizer:  resizer,
		trail:    tracker.NewTrail(d.cfg.Server.TrailSize),
		showIDs:  c.Query("ids") == "1",
	}

	defer state.resizer.Close()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	// pointer to position in video buffer
	frameNum := -1

	// used for calculating FPS
	frameCount := 0
	startTime := time.Now()

	ticker := time.NewTicker(FPSinterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Info("Client disconnected")
			return

		case <-ticker.C:

			frameNum++
			if frameNum > len(d.vidBuffer)-1 {
				// last frame reached so loop back to start of video
				frameNum = 0
				p.Reset()
				state.trail.Reset()
				d.publish(p.ID(), nil)
			}

			buf, err := d.processFrame(d.vidBuffer[frameNum], state)

			if err != nil {
				if errors.Is(err, errPoolClosed) {
					return
				}
				log.Warn("Error processing frame",
					zap.Int("frame", frameNum), zap.Error(err))
				continue
			}

			_, err = c.Writer.Write(mjpegPart(buf.GetBytes()))
			buf.Close()

			if err != nil {
				log.Info("Client write failed", zap.Error(err))
				return
			}

			c.Writer.Flush()

			// calculate FPS
			frameCount++
			elapsed := time.Since(startTime).Seconds()

			if elapsed >= 1.0 {
				state.fps = float64(frameCount) / elapsed
				frameCount = 0
				startTime = time.Now()
			}
		}
	}
}

// mjpegPart wraps a JPEG image as one part of the multipart stream
func mjpegPart(jpg []byte) []byte {
	part := make([]byte, 0, len(jpg)+64)
	part = append(part, "--frame\r\nContent-Type: image/jpeg\r\n\r\n"...)
	part = append(part, jpg...)
	return append(part, "\r\n"...)
}

// processFrame runs inference and tracking on a video frame and returns the
// annotated frame encoded as a JPEG
func (d *Demo) processFrame(frame gocv.Mat,
	state *streamState) (*gocv.NativeByteBuffer, error) {

	blob, err := state.resizer.Blob(frame)

	if err != nil {
		// age the tracks for the unusable frame
		_, _ = state.pipeline.ProcessFrame(nil, 0, 0)
		return nil, err
	}

	defer blob.Close()

	engine, ok := d.pool.Get()

	if !ok {
		return nil, errPoolClosed
	}

	tensor, err := engine.Infer(blob)
	d.pool.Return(engine)

	if err != nil {
		return nil, err
	}

	dets, err := state.pipeline.ProcessFrame(tensor, frame.Cols(), frame.Rows())

	if err != nil {
		return nil, err
	}

	tracks := state.pipeline.Tracks()
	state.trail.Update(tracks)
	d.publish(state.pipeline.ID(), tracks)

	img := frame.Clone()
	defer img.Close()

	annotate(&img, dets, tracks, state)

	return gocv.IMEncode(gocv.JPEGFileExt, img)
}

// annotate draws the detections, trails and stream status on the frame
func annotate(img *gocv.Mat, dets []postprocess.Detection,
	tracks []tracker.TrackedObject, state *streamState) {

	font := render.DefaultFont()

	if state.showIDs {
		render.Tracks(img, tracks, font, 2)
	} else {
		render.Detections(img, dets, font)
	}

	render.Trail(img, tracks, state.trail, render.DefaultTrailStyle())

	render.Status(img, []string{
		fmt.Sprintf("FPS: %.0f", state.fps),
		fmt.Sprintf("Objects: %d", len(dets)),
	}, render.StatusFont())
}

// trackJSON is the API form of a TrackedObject
type trackJSON struct {
	ID           int     `json:"id"`
	Label        string  `json:"label"`
	Confidence   float32 `json:"confidence"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	MissedFrames int     `json:"missedFrames"`
}

// Tracks returns the current tracks of every connected stream by pipeline ID
func (d *Demo) Tracks(c *gin.Context) {

	d.mu.Lock()
	streams := make(map[string][]trackJSON, len(d.streams))

	for id, snap := range d.streams {
		out := make([]trackJSON, 0, len(snap))

		for _, tr := range snap {
			out = append(out, trackJSON{
				ID:           tr.ID,
				Label:        tr.Label,
				Confidence:   tr.Confidence,
				X:            tr.Box.X,
				Y:            tr.Box.Y,
				Width:        tr.Box.Width,
				Height:       tr.Box.Height,
				MissedFrames: tr.MissedFrames,
			})
		}

		streams[id] = out
	}
	d.mu.Unlock()

	c.JSON(200, gin.H{"streams": streams})
}
