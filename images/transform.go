package images

import (
	"fmt"
	"image"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Interpolation selects the resampling kernel used when resizing.
type Interpolation string

const (
	// InterpolationNearest is nearest-neighbor resampling.
	InterpolationNearest Interpolation = "nearest"
	// InterpolationBilinear is bilinear resampling.
	InterpolationBilinear Interpolation = "bilinear"
	// InterpolationBicubic is bicubic resampling. Pretrained classification
	// checkpoints in this module were evaluated with bicubic inputs.
	InterpolationBicubic Interpolation = "bicubic"
	// InterpolationLanczos is Lanczos3 resampling.
	InterpolationLanczos Interpolation = "lanczos"
)

// Kernel maps the interpolation mode to its resampling function.
func (i Interpolation) Kernel() (resize.InterpolationFunction, error) {
	switch i {
	case InterpolationNearest:
		return resize.NearestNeighbor, nil
	case InterpolationBilinear:
		return resize.Bilinear, nil
	case InterpolationBicubic:
		return resize.Bicubic, nil
	case InterpolationLanczos:
		return resize.Lanczos3, nil
	default:
		return resize.NearestNeighbor, fmt.Errorf("unknown interpolation %q", i)
	}
}

// Transform is the evaluation-time preprocessing recipe for a classifier.
// The input is resized so its shorter side equals ResizeSize (preserving
// aspect ratio), center-cropped to CropSize, scaled to [0,1] and normalized
// channel-wise. The output layout is CHW in RGB order.
type Transform struct {
	// CropSize is the side length of the square center crop.
	CropSize int
	// ResizeSize is the target length of the shorter side before cropping.
	ResizeSize int
	// Interpolation selects the resize kernel.
	Interpolation Interpolation
	// Mean is subtracted per channel after scaling to [0,1], RGB order.
	Mean [3]float32
	// Std divides each channel after mean subtraction, RGB order.
	Std [3]float32
}

// Validate checks the recipe is internally consistent.
func (t Transform) Validate() error {
	if t.CropSize <= 0 {
		return fmt.Errorf("crop size must be positive, got %d", t.CropSize)
	}
	if t.ResizeSize < t.CropSize {
		return fmt.Errorf("resize size %d smaller than crop size %d", t.ResizeSize, t.CropSize)
	}
	if _, err := t.Interpolation.Kernel(); err != nil {
		return err
	}
	for c := 0; c < 3; c++ {
		if t.Std[c] == 0 {
			return fmt.Errorf("std for channel %d is zero", c)
		}
	}
	return nil
}

// NumElements is the element count of one transformed image (3*crop*crop).
func (t Transform) NumElements() int {
	return 3 * t.CropSize * t.CropSize
}

// Apply runs the full recipe on a decoded image and returns the CHW float32
// tensor data for a single image.
//
// Arguments:
//   - img: The decoded input image at any resolution.
//
// Returns:
//   - []float32: Normalized tensor data of length 3*CropSize*CropSize.
//   - error: An error if the recipe is invalid.
func (t Transform) Apply(img image.Image) ([]float32, error) {
	out := make([]float32, t.NumElements())
	if err := t.ApplyTo(img, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTo runs the recipe and writes into a caller-owned buffer, so a
// session can reuse its input tensor's backing slice across frames.
//
// Arguments:
//   - img: The decoded input image at any resolution.
//   - dst: Destination of at least 3*CropSize*CropSize floats.
//
// Returns:
//   - error: An error if the recipe is invalid or dst is too small.
func (t Transform) ApplyTo(img image.Image, dst []float32) error {
	if err := t.Validate(); err != nil {
		return errors.Wrap(err, "invalid transform")
	}
	if len(dst) < t.NumElements() {
		return fmt.Errorf("destination holds %d floats, needs %d", len(dst), t.NumElements())
	}

	resized, err := t.resizeShorterSide(img)
	if err != nil {
		return err
	}

	// Center crop offsets into the resized image.
	bounds := resized.Bounds()
	offX := bounds.Min.X + (bounds.Dx()-t.CropSize)/2
	offY := bounds.Min.Y + (bounds.Dy()-t.CropSize)/2

	channelSize := t.CropSize * t.CropSize
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	i := 0
	for y := 0; y < t.CropSize; y++ {
		for x := 0; x < t.CropSize; x++ {
			r, g, b, _ := resized.At(offX+x, offY+y).RGBA()
			red[i] = (float32(r>>8)/255.0 - t.Mean[0]) / t.Std[0]
			green[i] = (float32(g>>8)/255.0 - t.Mean[1]) / t.Std[1]
			blue[i] = (float32(b>>8)/255.0 - t.Mean[2]) / t.Std[2]
			i++
		}
	}
	return nil
}

// ApplyBatch preprocesses a batch of images in parallel and returns one
// contiguous NCHW tensor. Order is preserved.
//
// Arguments:
//   - imgs: Decoded input images.
//   - maxConcurrency: Maximum number of images processed at once.
//
// Returns:
//   - []float32: Tensor data of length len(imgs)*3*CropSize*CropSize.
//   - error: The first per-image failure, if any.
func (t Transform) ApplyBatch(imgs []image.Image, maxConcurrency int) ([]float32, error) {
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid transform")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	stride := t.NumElements()
	out := make([]float32, len(imgs)*stride)
	errs := make([]error, len(imgs))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, img := range imgs {
		wg.Add(1)
		go func(idx int, img image.Image) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := t.ApplyTo(img, out[idx*stride:(idx+1)*stride]); err != nil {
				errs[idx] = fmt.Errorf("failed to preprocess image %d: %w", idx, err)
			}
		}(i, img)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resizeShorterSide scales the image so its shorter side equals ResizeSize,
// preserving aspect ratio.
func (t Transform) resizeShorterSide(img image.Image) (image.Image, error) {
	kernel, err := t.Interpolation.Kernel()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", srcW, srcH)
	}

	var dstW, dstH uint
	if srcW <= srcH {
		dstW = uint(t.ResizeSize)
		dstH = uint((srcH*t.ResizeSize + srcW/2) / srcW)
	} else {
		dstH = uint(t.ResizeSize)
		dstW = uint((srcW*t.ResizeSize + srcH/2) / srcH)
	}

	// Keep the crop window coverable when rounding pulled the long side
	// under the crop size.
	if int(dstW) < t.CropSize {
		dstW = uint(t.CropSize)
	}
	if int(dstH) < t.CropSize {
		dstH = uint(t.CropSize)
	}

	return resize.Resize(dstW, dstH, img, kernel), nil
}
