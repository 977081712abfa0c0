// Package imagenet - canonical ImageNet-1K category metadata shared by every
// classification model in this module. The label table, normalization
// statistics and lookup helpers here are the single source of truth; model
// packages reference them instead of carrying their own copies.
package imagenet

import (
	"fmt"
	"sync"
)

// Per-channel normalization statistics of the ImageNet training set, in RGB
// order. Pretrained checkpoints expect inputs scaled to [0,1] and then
// normalized with these values.
var (
	Mean = [3]float32{0.485, 0.456, 0.406}
	Std  = [3]float32{0.229, 0.224, 0.225}
)

var (
	nameToIdx     map[string]int
	nameToIdxOnce sync.Once
)

// buildNameIndex maps each label to its FIRST index. Duplicate surface forms
// ("crane", "maillot") resolve to the lower index.
func buildNameIndex() {
	nameToIdx = make(map[string]int, len(Categories))
	for i, name := range Categories {
		if _, ok := nameToIdx[name]; !ok {
			nameToIdx[name] = i
		}
	}
}

// Label returns the category name for a class index.
func Label(idx int) (string, error) {
	if idx < 0 || idx >= len(Categories) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", idx, len(Categories))
	}
	return Categories[idx], nil
}

// Index returns the class index for a category name. Names that label more
// than one synset resolve to the lowest index.
func Index(name string) (int, error) {
	nameToIdxOnce.Do(buildNameIndex)
	idx, ok := nameToIdx[name]
	if !ok {
		return -1, fmt.Errorf("category %q not found", name)
	}
	return idx, nil
}
