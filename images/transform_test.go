package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTransform is the ImageNet evaluation recipe used across these tests.
func testTransform() Transform {
	return Transform{
		CropSize:      224,
		ResizeSize:    256,
		Interpolation: InterpolationBicubic,
		Mean:          [3]float32{0.485, 0.456, 0.406},
		Std:           [3]float32{0.229, 0.224, 0.225},
	}
}

// makeTestImage builds a horizontal gradient so resampling has real structure
// to work with.
func makeTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x * 255) / max(width-1, 1))
			img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: 128, A: 255})
		}
	}
	return img
}

// makeUniformImage builds a single-color image for exact value assertions.
func makeUniformImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// TestTransformApplyShape validates the output tensor has CHW layout sized
// for one image, and that every value lands inside the normalized range.
func TestTransformApplyShape(t *testing.T) {
	tr := testTransform()
	img := makeTestImage(800, 600)

	data, err := tr.Apply(img)
	require.NoError(t, err, "preprocessing a valid image should succeed")
	require.Len(t, data, 3*224*224, "output must hold one CHW image")

	// Normalized ImageNet pixels fall within roughly [-2.2, 2.7].
	minV, maxV := data[0], data[0]
	for _, v := range data {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	assert.GreaterOrEqual(t, minV, float32(-3.0), "values below plausible normalized range")
	assert.LessOrEqual(t, maxV, float32(3.0), "values above plausible normalized range")
}

// TestTransformUniformImage validates exact normalization arithmetic using a
// single-color input where resampling cannot change pixel values.
func TestTransformUniformImage(t *testing.T) {
	tr := testTransform()
	img := makeUniformImage(400, 300, color.RGBA{R: 255, G: 0, B: 128, A: 255})

	data, err := tr.Apply(img)
	require.NoError(t, err)

	channelSize := 224 * 224
	wantR := (1.0 - tr.Mean[0]) / tr.Std[0]
	wantG := (0.0 - tr.Mean[1]) / tr.Std[1]
	wantB := (float32(128)/255.0 - tr.Mean[2]) / tr.Std[2]

	assert.InDelta(t, wantR, data[0], 0.01, "red channel should normalize exactly")
	assert.InDelta(t, wantG, data[channelSize], 0.01, "green channel should normalize exactly")
	assert.InDelta(t, wantB, data[2*channelSize], 0.01, "blue channel should normalize exactly")

	// Spot-check the channel planes are internally uniform.
	assert.InDelta(t, data[0], data[channelSize-1], 0.01, "red plane should be uniform")
	assert.InDelta(t, data[channelSize], data[2*channelSize-1], 0.01, "green plane should be uniform")
}

// TestTransformPortraitAndLandscape validates shorter-side resizing handles
// both orientations without breaking the crop window.
func TestTransformPortraitAndLandscape(t *testing.T) {
	tr := testTransform()

	landscape, err := tr.Apply(makeTestImage(1024, 400))
	require.NoError(t, err, "landscape input should preprocess")
	assert.Len(t, landscape, tr.NumElements())

	portrait, err := tr.Apply(makeTestImage(400, 1024))
	require.NoError(t, err, "portrait input should preprocess")
	assert.Len(t, portrait, tr.NumElements())

	tiny, err := tr.Apply(makeTestImage(16, 16))
	require.NoError(t, err, "upscaling from a tiny input should preprocess")
	assert.Len(t, tiny, tr.NumElements())
}

// TestTransformValidate validates the recipe rejects inconsistent settings.
func TestTransformValidate(t *testing.T) {
	tr := testTransform()
	tr.CropSize = 0
	assert.Error(t, tr.Validate(), "zero crop size should be rejected")

	tr = testTransform()
	tr.ResizeSize = 100
	assert.Error(t, tr.Validate(), "resize smaller than crop should be rejected")

	tr = testTransform()
	tr.Interpolation = Interpolation("area")
	assert.Error(t, tr.Validate(), "unknown interpolation should be rejected")

	tr = testTransform()
	tr.Std[1] = 0
	assert.Error(t, tr.Validate(), "zero std should be rejected")

	assert.NoError(t, testTransform().Validate(), "the reference recipe should be valid")
}

// TestInterpolationKernels validates every declared mode maps to a kernel.
func TestInterpolationKernels(t *testing.T) {
	for _, mode := range []Interpolation{
		InterpolationNearest, InterpolationBilinear, InterpolationBicubic, InterpolationLanczos,
	} {
		_, err := mode.Kernel()
		assert.NoError(t, err, "mode %q should resolve to a kernel", mode)
	}

	_, err := Interpolation("box").Kernel()
	assert.Error(t, err, "undeclared modes should not resolve")
}

// TestApplyBatchPreservesOrder validates parallel preprocessing writes each
// image into its own slot of the batch tensor.
func TestApplyBatchPreservesOrder(t *testing.T) {
	tr := testTransform()
	imgs := []image.Image{
		makeUniformImage(300, 300, color.RGBA{R: 255, A: 255}),
		makeUniformImage(300, 300, color.RGBA{G: 255, A: 255}),
		makeUniformImage(300, 300, color.RGBA{B: 255, A: 255}),
	}

	data, err := tr.ApplyBatch(imgs, 2)
	require.NoError(t, err, "batch preprocessing should succeed")
	require.Len(t, data, 3*tr.NumElements(), "batch tensor must hold all images")

	stride := tr.NumElements()
	channelSize := tr.CropSize * tr.CropSize
	hot := (1.0 - tr.Mean[0]) / tr.Std[0]

	// Image 0 is red: its red plane is hot, image 1's red plane is cold.
	assert.InDelta(t, hot, data[0], 0.01, "first image should occupy slot 0")
	assert.Less(t, data[stride], float32(0), "second image red plane should be negative after normalization")
	// Image 1 is green: green plane of slot 1 is hot.
	hotG := (1.0 - tr.Mean[1]) / tr.Std[1]
	assert.InDelta(t, hotG, data[stride+channelSize], 0.01, "second image should occupy slot 1")
}

// TestApplyToBufferTooSmall validates destination sizing is enforced.
func TestApplyToBufferTooSmall(t *testing.T) {
	tr := testTransform()
	err := tr.ApplyTo(makeTestImage(256, 256), make([]float32, 10))
	assert.Error(t, err, "undersized destination should be rejected")
}

// TestDecodeRoundTrip validates format sniffing and decoding for the two
// stdlib codecs.
func TestDecodeRoundTrip(t *testing.T) {
	src := makeTestImage(64, 48)

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, src, &jpeg.Options{Quality: 90}))

	img, format, err := Decode(jpegBuf.Bytes())
	require.NoError(t, err, "JPEG decode should succeed")
	assert.Equal(t, FormatJPEG, format)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))

	img, format, err = Decode(pngBuf.Bytes())
	require.NoError(t, err, "PNG decode should succeed")
	assert.Equal(t, FormatPNG, format)
	assert.Equal(t, 64, img.Bounds().Dx())
}

// TestDetectFormat validates magic byte sniffing, including the WebP RIFF
// container, without needing a full encoder.
func TestDetectFormat(t *testing.T) {
	webpHeader := append([]byte("RIFF"), 0, 0, 0, 0)
	webpHeader = append(webpHeader, []byte("WEBP")...)

	format, err := DetectFormat(webpHeader)
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, format)

	_, err = DetectFormat([]byte("not an image"))
	assert.Error(t, err, "garbage bytes should not match a format")

	_, err = DetectFormat(nil)
	assert.Error(t, err, "empty input should not match a format")
}

// TestDecodeEmpty validates empty input is rejected before sniffing.
func TestDecodeEmpty(t *testing.T) {
	_, _, err := Decode(nil)
	assert.Error(t, err, "empty data should be rejected")
}

// TestLoadMetadata validates Load captures format and dimensions while
// keeping the original encoded bytes.
func TestLoadMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, makeTestImage(80, 60)))

	path := filepath.Join(t.TempDir(), "gradient.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, err := Load(path)
	require.NoError(t, err, "loading a valid PNG should succeed")
	assert.Equal(t, FormatPNG, img.Format)
	assert.Equal(t, 80, img.Width)
	assert.Equal(t, 60, img.Height)
	assert.Equal(t, buf.Bytes(), img.Data, "encoded bytes should pass through unchanged")

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err, "missing files should error")
}
