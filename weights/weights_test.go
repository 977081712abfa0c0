package weights

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-efficientnet/imagenet"
	"github.com/nvr-ai/go-efficientnet/images"
)

// TestRegistryCoversFamily validates every EfficientNet variant registered
// exactly one entry and that it is the variant's default.
func TestRegistryCoversFamily(t *testing.T) {
	for b := 0; b <= 7; b++ {
		arch := fmt.Sprintf("efficientnet-b%d", b)

		entries := ForArch(arch)
		require.Len(t, entries, 1, "%s should have exactly one registered entry", arch)

		def, err := Default(arch)
		require.NoError(t, err, "%s should have a default entry", arch)
		assert.Equal(t, entries[0], def, "the sole entry should be the default")
		assert.True(t, def.Default)
	}
}

// TestEntryMetadata validates the published preprocessing sizes and accuracy
// metrics survive registration untouched.
func TestEntryMetadata(t *testing.T) {
	cases := []struct {
		entry    *Entry
		crop     int
		resize   int
		checksum string
		acc1     float64
		acc5     float64
	}{
		{B0ImageNet1KTimmV1, 224, 256, "3dd342df", 77.692, 93.532},
		{B1ImageNet1KTimmV1, 240, 256, "533bc792", 78.642, 94.186},
		{B2ImageNet1KTimmV1, 288, 288, "bcdf34b7", 80.608, 95.310},
		{B3ImageNet1KTimmV1, 300, 320, "cf984f9c", 82.008, 96.054},
		{B4ImageNet1KTimmV1, 380, 384, "7eb33cd5", 83.384, 96.594},
		{B5ImageNet1KTFV1, 456, 456, "b6417697", 83.444, 96.628},
		{B6ImageNet1KTFV1, 528, 528, "c76e70fd", 84.008, 96.916},
		{B7ImageNet1KTFV1, 600, 600, "dcc49843", 84.122, 96.908},
	}

	for _, tc := range cases {
		t.Run(tc.entry.Name, func(t *testing.T) {
			assert.Equal(t, tc.crop, tc.entry.Transform.CropSize, "crop size")
			assert.Equal(t, tc.resize, tc.entry.Transform.ResizeSize, "resize size")
			assert.Equal(t, images.InterpolationBicubic, tc.entry.Transform.Interpolation,
				"all published checkpoints assume bicubic inputs")
			assert.Equal(t, tc.checksum, tc.entry.Checksum, "checksum prefix")
			assert.InDelta(t, tc.acc1, tc.entry.Meta.Acc1, 1e-9, "top-1 accuracy")
			assert.InDelta(t, tc.acc5, tc.entry.Meta.Acc5, 1e-9, "top-5 accuracy")
			assert.Contains(t, tc.entry.URL, tc.checksum, "artifact stem embeds the checksum prefix")
			assert.Equal(t, imagenet.NumCategories, tc.entry.NumClasses(), "classifier head width")
			assert.NotZero(t, tc.entry.Meta.NumParams)
			assert.NotEmpty(t, tc.entry.Meta.Recipe)
		})
	}
}

// TestVerify validates architecture/weights compatibility checks, including
// the nil pass-through used by optional weight arguments.
func TestVerify(t *testing.T) {
	assert.NoError(t, B0ImageNet1KTimmV1.Verify("efficientnet-b0"))
	assert.Error(t, B0ImageNet1KTimmV1.Verify("efficientnet-b1"),
		"foreign architectures must be rejected")

	var none *Entry
	assert.NoError(t, none.Verify("efficientnet-b0"), "nil entries verify trivially")
}

// TestLookup validates name resolution and the suggestion text for close
// misses.
func TestLookup(t *testing.T) {
	e, err := Lookup("efficientnet-b3/imagenet1k-timm-v1")
	require.NoError(t, err)
	assert.Equal(t, B3ImageNet1KTimmV1, e)

	_, err = Lookup("efficientnet-b3/imagenet1k-v2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "efficientnet-b3/imagenet1k-timm-v1",
		"error should list the variant's registered entries")

	_, err = Lookup("resnet-50/imagenet1k-v1")
	assert.Error(t, err)
}

// TestRegisterRejectsConflicts validates duplicate names, duplicate defaults
// and malformed entries are refused.
func TestRegisterRejectsConflicts(t *testing.T) {
	err := Register(B0ImageNet1KTimmV1)
	assert.Error(t, err, "re-registering the same name should fail")

	dup := *B0ImageNet1KTimmV1
	dup.Name = "efficientnet-b0/imagenet1k-test-v9"
	err = Register(&dup)
	assert.Error(t, err, "a second default for one arch should fail")

	assert.Error(t, Register(nil), "nil entries should fail")

	bad := *B0ImageNet1KTimmV1
	bad.Name = "efficientnet-b0/no-checksum"
	bad.Default = false
	bad.Checksum = ""
	assert.Error(t, Register(&bad), "entries without a checksum should fail")
}

// TestFilename validates the cache file name comes from the artifact URL.
func TestFilename(t *testing.T) {
	assert.Equal(t, "efficientnet_b0_rwightman-3dd342df.onnx", B0ImageNet1KTimmV1.Filename())
	assert.Equal(t, "efficientnet_b7_lukemelas-dcc49843.onnx", B7ImageNet1KTFV1.Filename())
}

// TestNames validates the listing is sorted and complete.
func TestNames(t *testing.T) {
	names := Names()
	require.GreaterOrEqual(t, len(names), 8, "all family entries should be listed")
	assert.IsNonDecreasing(t, names, "listing should be sorted")
	assert.Contains(t, names, "efficientnet-b5/imagenet1k-tf-v1")
}
