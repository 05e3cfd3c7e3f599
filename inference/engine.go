// Package inference runs detection Models on preprocessed frame blobs and
// returns their raw output tensors
package inference

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vistrack/postprocess"
)

// Engine runs a detection Model on an input blob
type Engine interface {
	// Infer runs the Model on the NCHW blob and returns a copy of its output
	// tensor
	Infer(blob gocv.Mat) (*postprocess.Tensor, error)
	// Close releases the Model
	Close() error
}

// ONNXEngine runs an ONNX Model with the OpenCV DNN module
type ONNXEngine struct {
	net gocv.Net
	// outputName is the Model output layer to read, empty for the default
	outputName string
}

// NewONNXEngine loads the ONNX Model file and selects the DNN backend and
// target device by their gocv names, eg: "default" and "cpu", or "cuda" and
// "cuda"
func NewONNXEngine(modelFile, backend, target string) (*ONNXEngine, error) {

	// OpenCV aborts on a missing file so check first
	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("error opening ONNX model: %w", err)
	}

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, fmt.Errorf("error reading ONNX model %s", modelFile)
	}

	if err := net.SetPreferableBackend(gocv.ParseNetBackend(backend)); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend %s: %w", backend, err)
	}

	if err := net.SetPreferableTarget(gocv.ParseNetTarget(target)); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target %s: %w", target, err)
	}

	return &ONNXEngine{net: net}, nil
}

// Infer runs the Model on the blob.  The output is copied out of OpenCV
// memory so the returned Tensor stays valid after the next call
func (e *ONNXEngine) Infer(blob gocv.Mat) (*postprocess.Tensor, error) {

	if blob.Empty() {
		return nil, fmt.Errorf("empty input blob")
	}

	e.net.SetInput(blob, "")

	out := e.net.Forward(e.outputName)
	defer out.Close()

	if out.Empty() {
		return nil, fmt.Errorf("model produced no output")
	}

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output tensor: %w", err)
	}

	buf := make([]float32, len(data))
	copy(buf, data)

	return postprocess.NewTensor(buf, out.Size()...), nil
}

// Close releases the OpenCV network
func (e *ONNXEngine) Close() error {
	return e.net.Close()
}
