package model

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Preprocess turns img into the [1,224,224,3] tensor the classifiers take.
//
// A string is read as an image file and resized. An Array or Tensor (by
// value or pointer) or an image.Image must already be 224x224; anything else is
// rejected with InvalidInputType.
func Preprocess(img any) (*Tensor, error) {
	switch v := img.(type) {
	case string:
		return PreprocessFile(v)
	case Array:
		return fromArray(&v)
	case *Array:
		if v == nil {
			break
		}
		return fromArray(v)
	case Tensor:
		return fromArray(&Array{Shape: v.Shape, Data: v.Data})
	case *Tensor:
		if v == nil {
			break
		}
		return fromArray(&Array{Shape: v.Shape, Data: v.Data})
	case image.Image:
		return fromImage(v)
	}
	return nil, newError(InvalidInputType, "", nil,
		"input image must be a file path, Array, Tensor or image.Image, got %T", img)
}

// PreprocessFile loads the image at path and resizes it to 224x224.
func PreprocessFile(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return PreprocessReader(f)
}

// PreprocessReader decodes an encoded image (JPEG, PNG, GIF, BMP, TIFF or
// WebP) and resizes it to 224x224.
func PreprocessReader(r io.Reader) (*Tensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Each output pixel takes exactly one source pixel; no averaging on
	// downscale.
	dst := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return toTensor(dst), nil
}

func fromImage(img image.Image) (*Tensor, error) {
	b := img.Bounds()
	if b.Dy() != ImageSize || b.Dx() != ImageSize {
		return nil, shapeError(fmt.Sprintf("got %dx%d", b.Dy(), b.Dx()))
	}
	return toTensor(img), nil
}

func fromArray(a *Array) (*Tensor, error) {
	var h, w, c int64
	switch {
	case len(a.Shape) == 3:
		h, w, c = a.Shape[0], a.Shape[1], a.Shape[2]
	case len(a.Shape) == 4 && a.Shape[0] == 1:
		h, w, c = a.Shape[1], a.Shape[2], a.Shape[3]
	default:
		return nil, shapeError(fmt.Sprintf("got shape %v", a.Shape))
	}

	if h != ImageSize || w != ImageSize {
		return nil, shapeError(fmt.Sprintf("got %dx%d", h, w))
	}
	if c != Channels {
		return nil, newError(InvalidInputShape, "", nil,
			"input image must have %d channels, got %d", Channels, c)
	}
	if want := h * w * c; int64(len(a.Data)) != want {
		return nil, newError(InvalidInputShape, "", nil,
			"input image has %d values, shape %v needs %d", len(a.Data), a.Shape, want)
	}

	data := make([]float32, len(a.Data))
	copy(data, a.Data)
	return &Tensor{Shape: tensorShape(), Data: data}, nil
}

// toTensor writes img as RGB values in [0, 255], row-major NHWC. Alpha is
// dropped, not composited.
func toTensor(img image.Image) *Tensor {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]float32, height*width*Channels)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*width + x) * Channels
			data[i] = float32(px.R)
			data[i+1] = float32(px.G)
			data[i+2] = float32(px.B)
		}
	}

	return &Tensor{Shape: tensorShape(), Data: data}
}

func tensorShape() []int64 {
	return []int64{1, ImageSize, ImageSize, Channels}
}

func shapeError(detail string) *Error {
	return newError(InvalidInputShape, "", nil,
		"input image must be of size (%d, %d), %s", ImageSize, ImageSize, detail)
}
