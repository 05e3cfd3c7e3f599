/*
go-vistrack turns the raw output tensor of a YOLOv8 style object detector
into a stable, per frame list of labelled detections for video.

Each frame passes through three stages, all found in subpackages:

  - postprocess.Decoder converts the [1, 4+C, P] tensor into Candidates using
    per class confidence and box size rules
  - postprocess.Suppressor runs class aware and cross class Non-Maximum
    Suppression
  - tracker.TrackStore matches the survivors to persistent tracks and smooths
    their boxes

Pipeline ties the stages together for a single video stream, with zap logging
and optional Prometheus metrics.  See the example subdirectory for a
streaming server running an ONNX model through gocv.
*/
package vistrack
