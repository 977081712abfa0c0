package efficientnet

import "math"

// BlockConfig describes one inverted-residual stage: a run of MBConv
// layers sharing an expansion ratio, kernel and output width. Only the
// first layer of a stage applies the stride; the rest run at stride 1
// with matching input and output channels.
type BlockConfig struct {
	// ExpandRatio widens the input channels for the depthwise conv.
	ExpandRatio float64
	// Kernel is the depthwise convolution kernel size.
	Kernel int
	// Stride of the stage's first layer.
	Stride int
	// InputChannels entering the stage.
	InputChannels int
	// OutputChannels leaving every layer of the stage.
	OutputChannels int
	// NumLayers is the number of MBConv layers in the stage.
	NumLayers int
}

// channelDivisor keeps every scaled channel count hardware friendly.
const channelDivisor = 8

// headExpansion widens the last stage's output into the feature head.
const headExpansion = 4

const (
	baselineStemChannels = 32
	baselineStemStride   = 2
	baselineStemKernel   = 3
	inputChannels        = 3
)

// The B0 baseline. Every other variant is this table with channels
// scaled by WidthMult and layer counts scaled by DepthMult.
var baselineBlocks = []BlockConfig{
	{ExpandRatio: 1, Kernel: 3, Stride: 1, InputChannels: 32, OutputChannels: 16, NumLayers: 1},
	{ExpandRatio: 6, Kernel: 3, Stride: 2, InputChannels: 16, OutputChannels: 24, NumLayers: 2},
	{ExpandRatio: 6, Kernel: 5, Stride: 2, InputChannels: 24, OutputChannels: 40, NumLayers: 2},
	{ExpandRatio: 6, Kernel: 3, Stride: 2, InputChannels: 40, OutputChannels: 80, NumLayers: 3},
	{ExpandRatio: 6, Kernel: 5, Stride: 1, InputChannels: 80, OutputChannels: 112, NumLayers: 3},
	{ExpandRatio: 6, Kernel: 5, Stride: 2, InputChannels: 112, OutputChannels: 192, NumLayers: 4},
	{ExpandRatio: 6, Kernel: 3, Stride: 1, InputChannels: 192, OutputChannels: 320, NumLayers: 1},
}

// makeDivisible rounds v to the nearest multiple of divisor without
// dropping below 90% of the unrounded value.
func makeDivisible(v float64, divisor int) int {
	n := int(v+float64(divisor)/2) / divisor * divisor
	if n < divisor {
		n = divisor
	}
	if float64(n) < 0.9*v {
		n += divisor
	}
	return n
}

// adjustChannels applies the width multiplier to a baseline channel count.
func adjustChannels(channels int, widthMult float64) int {
	return makeDivisible(float64(channels)*widthMult, channelDivisor)
}

// scaleRepeats applies the depth multiplier to a baseline layer count.
func scaleRepeats(repeats int, depthMult float64) int {
	return int(math.Ceil(float64(repeats) * depthMult))
}

// Stages returns the variant's scaled stage table.
func (p Params) Stages() []BlockConfig {
	stages := make([]BlockConfig, len(baselineBlocks))
	for i, b := range baselineBlocks {
		b.InputChannels = adjustChannels(b.InputChannels, p.WidthMult)
		b.OutputChannels = adjustChannels(b.OutputChannels, p.WidthMult)
		b.NumLayers = scaleRepeats(b.NumLayers, p.DepthMult)
		stages[i] = b
	}
	return stages
}

// StemChannels returns the width of the stem convolution's output.
func (p Params) StemChannels() int {
	return adjustChannels(baselineStemChannels, p.WidthMult)
}

// HeadChannels returns the feature dimension ahead of the classifier,
// e.g. 1280 for B0 and 2560 for B7.
func (p Params) HeadChannels() int {
	last := baselineBlocks[len(baselineBlocks)-1].OutputChannels
	return headExpansion * adjustChannels(last, p.WidthMult)
}

// ParamCount computes the exact number of trainable parameters of the
// variant's network with the given classifier width. The count matches
// the published checkpoint sizes, e.g. 5288548 for B0 at 1000 classes.
//
// Arguments:
//   - numClasses: Output width of the final linear classifier.
//
// Returns:
//   - int64: Total parameter count across stem, stages, head and classifier.
func (p Params) ParamCount(numClasses int) int64 {
	stem := int64(p.StemChannels())
	total := inputChannels*stem*int64(baselineStemKernel*baselineStemKernel) + 2*stem

	stages := p.Stages()
	for _, stage := range stages {
		in := stage.InputChannels
		for l := 0; l < stage.NumLayers; l++ {
			total += mbconvParamCount(in, stage.OutputChannels, stage.ExpandRatio, stage.Kernel)
			in = stage.OutputChannels
		}
	}

	last := int64(stages[len(stages)-1].OutputChannels)
	head := int64(p.HeadChannels())
	total += last*head + 2*head

	total += head*int64(numClasses) + int64(numClasses)
	return total
}

// mbconvParamCount counts one MBConv layer: expansion conv (skipped when
// the ratio is 1), depthwise conv, squeeze-excitation pair and projection
// conv, each conv followed by a 2-parameter-per-channel norm. The SE
// bottleneck is a quarter of the layer's input channels.
func mbconvParamCount(in, out int, expandRatio float64, kernel int) int64 {
	expanded := makeDivisible(float64(in)*expandRatio, channelDivisor)

	var n int64
	if expanded != in {
		n += int64(in)*int64(expanded) + 2*int64(expanded)
	}

	n += int64(expanded)*int64(kernel*kernel) + 2*int64(expanded)

	squeeze := in / 4
	if squeeze < 1 {
		squeeze = 1
	}
	n += int64(expanded)*int64(squeeze) + int64(squeeze)
	n += int64(squeeze)*int64(expanded) + int64(expanded)

	n += int64(expanded)*int64(out) + 2*int64(out)
	return n
}
