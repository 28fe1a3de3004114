package model

// Name identifies one of the classifier artifacts held by a Registry.
type Name string

const (
	Parts    Name = "Parts"
	Elbow    Name = "Elbow"
	Hand     Name = "Hand"
	Shoulder Name = "Shoulder"
)

// Names lists the known model identifiers in their fixed order.
var Names = []Name{Parts, Elbow, Hand, Shoulder}

// ImageSize is the spatial size every classifier expects.
const ImageSize = 224

// Channels is the number of colour channels fed to the classifiers.
const Channels = 3

var (
	PartLabels     = []string{"Elbow", "Hand", "Shoulder"}
	FractureLabels = []string{"fractured", "normal"}
)

// Valid reports whether n is one of the known identifiers.
func (n Name) Valid() bool {
	for _, known := range Names {
		if n == known {
			return true
		}
	}
	return false
}

// Labels returns the label sequence the model's output indices map onto.
func (n Name) Labels() []string {
	if n == Parts {
		return PartLabels
	}
	return FractureLabels
}

// Tensor is a preprocessed image in NHWC layout.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Array is an in-memory image given as a shape and row-major float data,
// either (H, W, C) or (1, H, W, C).
type Array struct {
	Shape []int64
	Data  []float32
}

// Prediction is the full result of one classifier run.
type Prediction struct {
	Model       Name               `json:"model"`
	Class       string             `json:"class"`
	Index       int                `json:"index"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}

// Analysis is the two-stage body part then fracture result.
type Analysis struct {
	BodyPart       *Prediction `json:"body_part"`
	FractureStatus *Prediction `json:"fracture_status"`
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
	Shape []int64   `json:"shape,omitempty"`
}

type PredictionResponse struct {
	Model       string             `json:"model"`
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}

type AnalysisResponse struct {
	ID             string `json:"id"`
	BodyPart       string `json:"body_part"`
	FractureStatus string `json:"fracture_status"`
	Message        string `json:"message"`
}
