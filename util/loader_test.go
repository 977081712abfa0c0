package util

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPNG encodes a tiny solid PNG under dir.
func writeTestPNG(t *testing.T, dir, name string, c color.RGBA) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

// TestLoadImageFilesSequenceOrder tests that numbered frames come back in
// playback order regardless of directory listing order.
func TestLoadImageFilesSequenceOrder(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "frame-10.png", color.RGBA{R: 255, A: 255})
	writeTestPNG(t, dir, "frame-2.png", color.RGBA{G: 255, A: 255})
	writeTestPNG(t, dir, "frame-1.png", color.RGBA{B: 255, A: 255})

	files, err := LoadImageFiles(dir)
	require.NoError(t, err, "Readable directories should load")
	require.Len(t, files, 3)

	assert.Equal(t, []int{1, 2, 10}, []int{files[0].Seq, files[1].Seq, files[2].Seq},
		"Numeric ordering should beat lexical ordering")
	for _, f := range files {
		assert.NotEmpty(t, f.Data, "File payloads should be read")
	}
}

// TestLoadImageFilesSkipsOtherTypes tests the extension filter.
func TestLoadImageFilesSkipsOtherTypes(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "cat.png", color.RGBA{A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := LoadImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "Only image extensions should load")
	assert.Equal(t, -1, files[0].Seq, "Unnumbered stems carry no sequence")
}

// TestLoadImageFilesMissingDir tests the unreadable-directory error path.
func TestLoadImageFilesMissingDir(t *testing.T) {
	_, err := LoadImageFiles(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err, "A missing directory should error")
	assert.Contains(t, err.Error(), "absent", "The error should name the directory")
}

// TestSequenceNumber tests suffix extraction.
func TestSequenceNumber(t *testing.T) {
	assert.Equal(t, 17, sequenceNumber("frame-17"))
	assert.Equal(t, 3, sequenceNumber("img_003"))
	assert.Equal(t, 42, sequenceNumber("42"))
	assert.Equal(t, -1, sequenceNumber("cat"))
	assert.Equal(t, -1, sequenceNumber(""))
}
