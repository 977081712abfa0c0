// Package util - filesystem helpers for feeding images into models.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file read from disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Seq is the numeric suffix of the file name when it has one
	// (frame-17.jpg, img_003.png), -1 otherwise. Files with sequence
	// numbers sort by them; the rest sort by path.
	Seq int
}

// Extensions accepted by LoadImageFiles.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// LoadImageFiles reads all image files from a directory in playback
// order.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: One entry per readable image, sequence-ordered.
//   - error: An error if the directory or any matching file is unreadable.
func LoadImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image directory %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		if !imageExtensions[ext] {
			continue
		}

		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read image %s", path)
		}

		images = append(images, ImageFile{
			Path: path,
			Data: data,
			Seq:  sequenceNumber(strings.TrimSuffix(file.Name(), ext)),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		if images[i].Seq != images[j].Seq {
			return images[i].Seq < images[j].Seq
		}
		return images[i].Path < images[j].Path
	})

	return images, nil
}

// sequenceNumber extracts the trailing integer of a file stem, -1 when
// the stem has none.
func sequenceNumber(stem string) int {
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}

	n, err := strconv.Atoi(stem[start:end])
	if err != nil {
		return -1
	}
	return n
}
