// Package onnx loads the X-ray classifiers with ONNX Runtime.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

type Options struct {
	// SharedLibraryPath points at libonnxruntime. Empty keeps the
	// runtime's platform default.
	SharedLibraryPath string
	// NumThreads sets intra-op parallelism; 0 leaves the runtime default.
	NumThreads int
	Logger     logrus.FieldLogger
}

// Runtime owns the ONNX Runtime environment and creates one session per
// model. Its Load method is a model.Loader.
type Runtime struct {
	opts    Options
	log     logrus.FieldLogger
	once    sync.Once
	initErr error
}

func NewRuntime(opts Options) *Runtime {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runtime{opts: opts, log: log}
}

func (rt *Runtime) init() error {
	rt.once.Do(func() {
		if rt.opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(rt.opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			rt.initErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return rt.initErr
}

// Load creates a session for the weights at path after checking that the
// graph takes a [N,224,224,3] input and produces one score per label.
func (rt *Runtime) Load(name model.Name, path string) (model.Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if err := rt.init(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model graph: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected one input and one output, got %d and %d", len(inputs), len(outputs))
	}
	labels := name.Labels()
	if err := checkInput(inputs[0].Dimensions); err != nil {
		return nil, err
	}
	if err := checkOutput(outputs[0].Dimensions, len(labels)); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, model.ImageSize, model.ImageSize, model.Channels))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOpts.Destroy()
	if rt.opts.NumThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(rt.opts.NumThreads); err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		sessionOpts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	rt.log.WithFields(logrus.Fields{
		"model":  name,
		"path":   path,
		"input":  inputs[0].Name,
		"output": outputs[0].Name,
	}).Info("Loaded model")

	return &classifier{
		name:         name,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		log:          rt.log.WithField("model", name),
	}, nil
}

// Close tears down the ONNX environment. Call it after every classifier
// has been closed.
func (rt *Runtime) Close() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func checkInput(dims ort.Shape) error {
	want := []int64{model.ImageSize, model.ImageSize, model.Channels}
	if len(dims) != 4 {
		return fmt.Errorf("input must have rank 4, got shape %v", dims)
	}
	for i, w := range want {
		if d := dims[i+1]; d > 0 && d != w {
			return fmt.Errorf("input shape %v is not compatible with [N %d %d %d]", dims, want[0], want[1], want[2])
		}
	}
	return nil
}

func checkOutput(dims ort.Shape, classes int) error {
	if len(dims) == 0 {
		return errors.New("output has no dimensions")
	}
	if last := dims[len(dims)-1]; last != int64(classes) {
		return fmt.Errorf("output shape %v does not produce %d classes", dims, classes)
	}
	return nil
}

// classifier is a single session with bound tensors. The tensors are
// shared between runs, so runs are serialised.
type classifier struct {
	name         model.Name
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	log          logrus.FieldLogger
}

func (c *classifier) Predict(input *model.Tensor, verbose int) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, errors.New("classifier is closed")
	}

	dst := c.inputTensor.GetData()
	if len(input.Data) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input.Data), len(dst))
	}
	copy(dst, input.Data)

	start := time.Now()
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	probs := make([]float32, len(out))
	copy(probs, out)

	if verbose > 0 {
		c.log.WithFields(logrus.Fields{
			"duration": time.Since(start),
			"scores":   probs,
		}).Info("Ran inference")
	}
	return probs, nil
}

func (c *classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.session != nil {
		errs = append(errs, c.session.Destroy())
		c.session = nil
	}
	if c.inputTensor != nil {
		errs = append(errs, c.inputTensor.Destroy())
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		errs = append(errs, c.outputTensor.Destroy())
		c.outputTensor = nil
	}
	return errors.Join(errs...)
}
