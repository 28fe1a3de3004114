package model

import (
	"errors"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPredictor(t *testing.T) (*Predictor, *fakeLoader) {
	t.Helper()
	l := newFakeLoader()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewPredictor(newTestRegistry(t, l), log), l
}

func testImage() *Array {
	return &Array{Shape: []int64{1, 224, 224, 3}, Data: make([]float32, 224*224*3)}
}

func TestPredictLabelSets(t *testing.T) {
	p, _ := newTestPredictor(t)

	for _, name := range Names {
		t.Run(string(name), func(t *testing.T) {
			label, err := p.Predict(testImage(), string(name), 0)
			require.NoError(t, err)
			assert.Contains(t, name.Labels(), label)
		})
	}
	assert.Len(t, Parts.Labels(), 3)
	assert.Len(t, Hand.Labels(), 2)
}

func TestPredictLabels(t *testing.T) {
	p, _ := newTestPredictor(t)

	tests := []struct {
		model string
		want  string
	}{
		{"Parts", "Shoulder"},
		{"Elbow", "normal"},
		{"Hand", "fractured"},
		{"Shoulder", "fractured"},
	}
	for _, tt := range tests {
		got, err := p.Predict(testImage(), tt.model, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "model %s", tt.model)
	}
}

func TestPredictDefaultsToParts(t *testing.T) {
	p, l := newTestPredictor(t)

	got, err := p.Predict(testImage(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "Shoulder", got)
	assert.Equal(t, 1, l.fakes[Parts].calls)
}

func TestPredictFromFile(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Parts].scores = []float32{0.9, 0.05, 0.05}
	l.fakes[Elbow].scores = []float32{0.2, 0.8}
	path := writePNG(t, 512, 400, color.Gray{Y: 128})

	part, err := p.Predict(path, "Parts", 0)
	require.NoError(t, err)
	assert.Equal(t, "Elbow", part)

	status, err := p.Predict(path, "Elbow", 0)
	require.NoError(t, err)
	assert.Equal(t, "normal", status)
}

func TestPredictUnknownModel(t *testing.T) {
	p, l := newTestPredictor(t)

	for _, name := range []string{"NotAModel", "parts", "Knee", " Hand"} {
		_, err := p.Predict(testImage(), name, 0)
		require.Error(t, err)
		assert.Equal(t, UnknownModel, KindOf(err), "model %q", name)
		assert.ErrorIs(t, err, ErrUnknownModel)
		assert.Contains(t, err.Error(), "Parts, Elbow, Hand, Shoulder")
	}
	for _, f := range l.fakes {
		assert.Zero(t, f.calls)
	}
}

func TestPredictUnknownModelBeforePreprocessing(t *testing.T) {
	p, _ := newTestPredictor(t)

	_, err := p.Predict(42, "NotAModel", 0)
	assert.Equal(t, UnknownModel, KindOf(err))
}

func TestPredictPropagatesPreprocessErrors(t *testing.T) {
	p, l := newTestPredictor(t)

	_, err := p.Predict(&Array{Shape: []int64{1, 100, 100, 3}}, "Hand", 0)
	assert.Equal(t, InvalidInputShape, KindOf(err))

	_, err = p.Predict(7, "Hand", 0)
	assert.Equal(t, InvalidInputType, KindOf(err))

	assert.Zero(t, l.fakes[Hand].calls)
}

func TestPredictClassifierFailure(t *testing.T) {
	p, l := newTestPredictor(t)
	cause := errors.New("session crashed")
	l.fakes[Shoulder].err = cause

	_, err := p.Predict(testImage(), "Shoulder", 0)
	require.Error(t, err)
	assert.Equal(t, PredictionFailed, KindOf(err))
	assert.ErrorIs(t, err, ErrPredictionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "session crashed")
}

func TestPredictScoreCountMismatch(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Elbow].scores = []float32{0.1, 0.2, 0.7}

	_, err := p.Predict(testImage(), "Elbow", 0)
	assert.Equal(t, PredictionFailed, KindOf(err))
}

func TestPredictNaNScore(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Hand].scores = []float32{float32(math.NaN()), 0.5}

	_, err := p.Predict(testImage(), "Hand", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPredictionFailed)
	assert.Contains(t, err.Error(), "NaN")
}

func TestPredictTieGoesToLowestIndex(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Parts].scores = []float32{0.2, 0.4, 0.4}
	l.fakes[Hand].scores = []float32{0.5, 0.5}

	got, err := p.Predict(testImage(), "Parts", 0)
	require.NoError(t, err)
	assert.Equal(t, "Hand", got)

	got, err = p.Predict(testImage(), "Hand", 0)
	require.NoError(t, err)
	assert.Equal(t, "fractured", got)
}

func TestPredictIsIdempotent(t *testing.T) {
	p, _ := newTestPredictor(t)
	img := testImage()

	first, err := p.Predict(img, "Elbow", 0)
	require.NoError(t, err)
	second, err := p.Predict(img, "Elbow", 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictPassesVerbosity(t *testing.T) {
	p, l := newTestPredictor(t)

	_, err := p.Predict(testImage(), "Hand", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, l.fakes[Hand].verbose)
}

func TestClassify(t *testing.T) {
	p, _ := newTestPredictor(t)

	pred, err := p.Classify(testImage(), "Hand", 0)
	require.NoError(t, err)
	assert.Equal(t, Hand, pred.Model)
	assert.Equal(t, "fractured", pred.Class)
	assert.Equal(t, 0, pred.Index)
	assert.InDelta(t, 0.6, pred.Confidence, 1e-6)
	assert.Equal(t, map[string]float32{"fractured": 0.6, "normal": 0.4}, pred.Predictions)
}

func TestAnalyze(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Parts].scores = []float32{0.9, 0.05, 0.05}
	l.fakes[Elbow].scores = []float32{0.3, 0.7}

	a, err := p.Analyze(testImage(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Elbow", a.BodyPart.Class)
	assert.Equal(t, Elbow, a.FractureStatus.Model)
	assert.Equal(t, "normal", a.FractureStatus.Class)
	assert.Zero(t, l.fakes[Hand].calls)
	assert.Zero(t, l.fakes[Shoulder].calls)
}

func TestAnalyzeShoulderFracture(t *testing.T) {
	p, _ := newTestPredictor(t)

	a, err := p.Analyze(testImage(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Shoulder", a.BodyPart.Class)
	assert.Equal(t, "fractured", a.FractureStatus.Class)
}

func TestAnalyzePartsFailure(t *testing.T) {
	p, l := newTestPredictor(t)
	l.fakes[Parts].err = errors.New("boom")

	_, err := p.Analyze(testImage(), 0)
	assert.Equal(t, PredictionFailed, KindOf(err))
	assert.Zero(t, l.fakes[Elbow].calls+l.fakes[Hand].calls+l.fakes[Shoulder].calls)
}
