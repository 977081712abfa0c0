package weights

import (
	"github.com/nvr-ai/go-efficientnet/imagenet"
	"github.com/nvr-ai/go-efficientnet/images"
)

// Checkpoint artifacts keep the stems of the published parameter sets, with
// the leading eight hex digits of each file's SHA-256 embedded in the name.
const artifactHost = "https://models.nvr-ai.dev/efficientnet/"

// classificationRecipe documents how the B0-B4 parameter sets were produced.
const classificationRecipe = "https://github.com/pytorch/vision/tree/main/references/classification#efficientnet"

// evalTransform is the shared ImageNet evaluation recipe. Every EfficientNet
// checkpoint was benchmarked with bicubic resampling.
func evalTransform(cropSize, resizeSize int) images.Transform {
	return images.Transform{
		CropSize:      cropSize,
		ResizeSize:    resizeSize,
		Interpolation: images.InterpolationBicubic,
		Mean:          imagenet.Mean,
		Std:           imagenet.Std,
	}
}

// B0ImageNet1KTimmV1 carries the EfficientNet-B0 parameters trained in timm.
var B0ImageNet1KTimmV1 = &Entry{
	Name:      "efficientnet-b0/imagenet1k-timm-v1",
	Arch:      "efficientnet-b0",
	URL:       artifactHost + "efficientnet_b0_rwightman-3dd342df.onnx",
	Checksum:  "3dd342df",
	Size:      21460760,
	Default:   true,
	Transform: evalTransform(224, 256),
	Meta: Meta{
		NumParams:  5288548,
		Categories: imagenet.Categories,
		Origin:     "rwightman/pytorch-image-models",
		Recipe:     classificationRecipe,
		Acc1:       77.692,
		Acc5:       93.532,
	},
}

// B1ImageNet1KTimmV1 carries the EfficientNet-B1 parameters trained in timm.
var B1ImageNet1KTimmV1 = &Entry{
	Name:      "efficientnet-b1/imagenet1k-timm-v1",
	Arch:      "efficientnet-b1",
	URL:       artifactHost + "efficientnet_b1_rwightman-533bc792.onnx",
	Checksum:  "533bc792",
	Size:      31483968,
	Default:   true,
	Transform: evalTransform(240, 256),
	Meta: Meta{
		NumParams:  7794184,
		Categories: imagenet.Categories,
		Origin:     "rwightman/pytorch-image-models",
		Recipe:     classificationRecipe,
		Acc1:       78.642,
		Acc5:       94.186,
	},
}

// B2ImageNet1KTimmV1 carries the EfficientNet-B2 parameters trained in timm.
var B2ImageNet1KTimmV1 = &Entry{
	Name:      "efficientnet-b2/imagenet1k-timm-v1",
	Arch:      "efficientnet-b2",
	URL:       artifactHost + "efficientnet_b2_rwightman-bcdf34b7.onnx",
	Checksum:  "bcdf34b7",
	Size:      36747608,
	Default:   true,
	Transform: evalTransform(288, 288),
	Meta: Meta{
		NumParams:  9109994,
		Categories: imagenet.Categories,
		Origin:     "rwightman/pytorch-image-models",
		Recipe:     classificationRecipe,
		Acc1:       80.608,
		Acc5:       95.310,
	},
}

// B3ImageNet1KTimmV1 carries the EfficientNet-B3 parameters trained in timm.
var B3ImageNet1KTimmV1 = &Entry{
	Name:      "efficientnet-b3/imagenet1k-timm-v1",
	Arch:      "efficientnet-b3",
	URL:       artifactHost + "efficientnet_b3_rwightman-cf984f9c.onnx",
	Checksum:  "cf984f9c",
	Size:      49240120,
	Default:   true,
	Transform: evalTransform(300, 320),
	Meta: Meta{
		NumParams:  12233232,
		Categories: imagenet.Categories,
		Origin:     "rwightman/pytorch-image-models",
		Recipe:     classificationRecipe,
		Acc1:       82.008,
		Acc5:       96.054,
	},
}

// B4ImageNet1KTimmV1 carries the EfficientNet-B4 parameters trained in timm.
var B4ImageNet1KTimmV1 = &Entry{
	Name:      "efficientnet-b4/imagenet1k-timm-v1",
	Arch:      "efficientnet-b4",
	URL:       artifactHost + "efficientnet_b4_rwightman-7eb33cd5.onnx",
	Checksum:  "7eb33cd5",
	Size:      77673848,
	Default:   true,
	Transform: evalTransform(380, 384),
	Meta: Meta{
		NumParams:  19341616,
		Categories: imagenet.Categories,
		Origin:     "rwightman/pytorch-image-models",
		Recipe:     classificationRecipe,
		Acc1:       83.384,
		Acc5:       96.594,
	},
}

// B5ImageNet1KTFV1 carries the EfficientNet-B5 parameters ported from the
// original TensorFlow release.
var B5ImageNet1KTFV1 = &Entry{
	Name:      "efficientnet-b5/imagenet1k-tf-v1",
	Arch:      "efficientnet-b5",
	URL:       artifactHost + "efficientnet_b5_lukemelas-b6417697.onnx",
	Checksum:  "b6417697",
	Size:      121866520,
	Default:   true,
	Transform: evalTransform(456, 456),
	Meta: Meta{
		NumParams:  30389784,
		Categories: imagenet.Categories,
		Origin:     "lukemelas/EfficientNet-PyTorch",
		Recipe:     classificationRecipe,
		Acc1:       83.444,
		Acc5:       96.628,
	},
}

// B6ImageNet1KTFV1 carries the EfficientNet-B6 parameters ported from the
// original TensorFlow release.
var B6ImageNet1KTFV1 = &Entry{
	Name:      "efficientnet-b6/imagenet1k-tf-v1",
	Arch:      "efficientnet-b6",
	URL:       artifactHost + "efficientnet_b6_lukemelas-c76e70fd.onnx",
	Checksum:  "c76e70fd",
	Size:      172470232,
	Default:   true,
	Transform: evalTransform(528, 528),
	Meta: Meta{
		NumParams:  43040704,
		Categories: imagenet.Categories,
		Origin:     "lukemelas/EfficientNet-PyTorch",
		Recipe:     classificationRecipe,
		Acc1:       84.008,
		Acc5:       96.916,
	},
}

// B7ImageNet1KTFV1 carries the EfficientNet-B7 parameters ported from the
// original TensorFlow release.
var B7ImageNet1KTFV1 = &Entry{
	Name:      "efficientnet-b7/imagenet1k-tf-v1",
	Arch:      "efficientnet-b7",
	URL:       artifactHost + "efficientnet_b7_lukemelas-dcc49843.onnx",
	Checksum:  "dcc49843",
	Size:      265699288,
	Default:   true,
	Transform: evalTransform(600, 600),
	Meta: Meta{
		NumParams:  66347960,
		Categories: imagenet.Categories,
		Origin:     "lukemelas/EfficientNet-PyTorch",
		Recipe:     classificationRecipe,
		Acc1:       84.122,
		Acc5:       96.908,
	},
}

func init() {
	MustRegister(B0ImageNet1KTimmV1)
	MustRegister(B1ImageNet1KTimmV1)
	MustRegister(B2ImageNet1KTimmV1)
	MustRegister(B3ImageNet1KTimmV1)
	MustRegister(B4ImageNet1KTimmV1)
	MustRegister(B5ImageNet1KTFV1)
	MustRegister(B6ImageNet1KTFV1)
	MustRegister(B7ImageNet1KTFV1)
}
