package model

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Predictor runs images through the classifiers of a Registry.
type Predictor struct {
	registry *Registry
	log      logrus.FieldLogger
}

func NewPredictor(registry *Registry, log logrus.FieldLogger) *Predictor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Predictor{registry: registry, log: log}
}

// Predict returns the label the named model assigns to img. An empty name
// selects Parts. verbose is handed to the classifier and only affects
// logging.
func (p *Predictor) Predict(img any, name string, verbose int) (string, error) {
	pred, err := p.Classify(img, name, verbose)
	if err != nil {
		return "", err
	}
	return pred.Class, nil
}

// Classify is Predict with the full score distribution.
func (p *Predictor) Classify(img any, name string, verbose int) (*Prediction, error) {
	n, err := p.resolve(name)
	if err != nil {
		return nil, err
	}

	input, err := Preprocess(img)
	if err != nil {
		return nil, err
	}
	return p.run(n, input, verbose)
}

// Analyze identifies the body part with the Parts model and then runs the
// fracture model for that part on the same input.
func (p *Predictor) Analyze(img any, verbose int) (*Analysis, error) {
	input, err := Preprocess(img)
	if err != nil {
		return nil, err
	}

	part, err := p.run(Parts, input, verbose)
	if err != nil {
		return nil, err
	}

	fracture, err := p.run(Name(part.Class), input, verbose)
	if err != nil {
		return nil, err
	}
	return &Analysis{BodyPart: part, FractureStatus: fracture}, nil
}

func (p *Predictor) resolve(name string) (Name, error) {
	if name == "" {
		return Parts, nil
	}
	n := Name(name)
	if !n.Valid() {
		return "", newError(UnknownModel, n, nil,
			"invalid model %q, valid options are: %s", name, validNames())
	}
	if _, ok := p.registry.Get(n); !ok {
		return "", newError(UnknownModel, n, nil, "model %q is not loaded", name)
	}
	return n, nil
}

func (p *Predictor) run(name Name, input *Tensor, verbose int) (*Prediction, error) {
	c, ok := p.registry.Get(name)
	if !ok {
		return nil, newError(UnknownModel, name, nil, "model %q is not loaded", name)
	}

	scores, err := c.Predict(input, verbose)
	if err != nil {
		return nil, newError(PredictionFailed, name, err, "prediction failed")
	}

	labels := name.Labels()
	if len(scores) != len(labels) {
		return nil, newError(PredictionFailed, name, nil,
			"prediction failed: model %q returned %d scores for %d labels", name, len(scores), len(labels))
	}
	for i, v := range scores {
		if math.IsNaN(float64(v)) {
			return nil, newError(PredictionFailed, name, nil,
				"prediction failed: model %q returned NaN for %q", name, labels[i])
		}
	}

	idx := argmax(scores)
	predictions := make(map[string]float32, len(labels))
	for i, label := range labels {
		predictions[label] = scores[i]
	}

	p.log.WithFields(logrus.Fields{
		"model": name,
		"class": labels[idx],
		"score": scores[idx],
	}).Debug("Prediction complete")

	return &Prediction{
		Model:       name,
		Class:       labels[idx],
		Index:       idx,
		Confidence:  scores[idx],
		Predictions: predictions,
	}, nil
}

// argmax returns the index of the highest score. Ties go to the lowest
// index. Scores must not contain NaN; floats.MaxIdx skips it.
func argmax(scores []float32) int {
	s := make([]float64, len(scores))
	for i, v := range scores {
		s[i] = float64(v)
	}
	return floats.MaxIdx(s)
}

func validNames() string {
	names := make([]string, len(Names))
	for i, n := range Names {
		names[i] = string(n)
	}
	return strings.Join(names, ", ")
}
