package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	predictor *model.Predictor
	registry  *model.Registry
	maxUpload int64
	log       logrus.FieldLogger
}

func NewHandler(predictor *model.Predictor, registry *model.Registry, maxUpload int64, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		predictor: predictor,
		registry:  registry,
		maxUpload: maxUpload,
		log:       log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "models": h.registry.Names()})
}

// Predict classifies a raw HWC float array sent as JSON.
func (h *Handler) Predict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	shape := req.Shape
	if len(shape) == 0 {
		shape = []int64{model.ImageSize, model.ImageSize, model.Channels}
	}

	verbose, ok := h.verbosity(c)
	if !ok {
		return
	}

	result, err := h.predictor.Classify(&model.Array{Shape: shape, Data: req.Image}, c.Query("model"), verbose)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response(result))
}

// PredictFromImage classifies an uploaded image file.
func (h *Handler) PredictFromImage(c *gin.Context) {
	verbose, ok := h.verbosity(c)
	if !ok {
		return
	}

	input, ok := h.upload(c, "image", "file")
	if !ok {
		return
	}

	result, err := h.predictor.Classify(input, c.Query("model"), verbose)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response(result))
}

// Analyze finds the body part of an uploaded X-ray and its fracture status.
func (h *Handler) Analyze(c *gin.Context) {
	verbose, ok := h.verbosity(c)
	if !ok {
		return
	}

	input, ok := h.upload(c, "file", "image")
	if !ok {
		return
	}

	analysis, err := h.predictor.Analyze(input, verbose)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := uuid.NewString()
	part, status := analysis.BodyPart.Class, analysis.FractureStatus.Class
	h.log.WithFields(logrus.Fields{
		"id":        id,
		"body_part": part,
		"fracture":  status,
	}).Info("Analyzed X-ray")

	c.JSON(http.StatusOK, model.AnalysisResponse{
		ID:             id,
		BodyPart:       part,
		FractureStatus: status,
		Message:        fmt.Sprintf("%s X-ray classified as %s", part, status),
	})
}

// upload decodes the first of fields present in the multipart form and
// resizes it. It writes the error response itself and reports false on
// failure.
func (h *Handler) upload(c *gin.Context, fields ...string) (*model.Tensor, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return nil, false
	}

	var header *multipart.FileHeader
	for _, field := range fields {
		if fh, err := c.FormFile(field); err == nil {
			header = fh
			break
		}
	}
	if header == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("No image file provided. Use '%s' as the form field name", fields[0]),
		})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return nil, false
	}
	defer file.Close()

	h.log.Debugf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	input, err := model.PreprocessReader(file)
	if err != nil {
		h.log.WithError(err).Warn("Rejected upload")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Invalid image format. Supported: JPEG, PNG, GIF, BMP, TIFF, WebP",
		})
		return nil, false
	}
	return input, true
}

func (h *Handler) verbosity(c *gin.Context) (int, bool) {
	s := c.Query("verbose")
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verbose must be a non-negative integer"})
		return 0, false
	}
	return v, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	kind := model.KindOf(err)
	switch kind {
	case model.UnknownModel, model.InvalidInputType, model.InvalidInputShape:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind.String()})
		return
	}

	h.log.WithError(err).Error("Prediction error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed", "kind": kind.String()})
}

func response(p *model.Prediction) model.PredictionResponse {
	return model.PredictionResponse{
		Model:       string(p.Model),
		Class:       p.Class,
		Confidence:  p.Confidence,
		Predictions: p.Predictions,
	}
}
