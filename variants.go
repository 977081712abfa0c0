package efficientnet

import (
	"fmt"
	"strings"
)

// Variant identifies one member of the EfficientNet family.
type Variant string

// The eight published compound-scaling variants.
const (
	VariantB0 Variant = "efficientnet-b0"
	VariantB1 Variant = "efficientnet-b1"
	VariantB2 Variant = "efficientnet-b2"
	VariantB3 Variant = "efficientnet-b3"
	VariantB4 Variant = "efficientnet-b4"
	VariantB5 Variant = "efficientnet-b5"
	VariantB6 Variant = "efficientnet-b6"
	VariantB7 Variant = "efficientnet-b7"
)

// Params holds a variant's compound-scaling hyperparameters.
type Params struct {
	// WidthMult scales channel counts across every stage.
	WidthMult float64
	// DepthMult scales the layer count of every stage.
	DepthMult float64
	// Dropout is the classifier dropout rate used at training time.
	Dropout float64
	// NormEpsilon is the batch-norm epsilon.
	NormEpsilon float64
	// NormMomentum is the batch-norm running-stats momentum.
	NormMomentum float64
	// TrainSize is the square input resolution the variant was trained at.
	TrainSize int
}

// Batch-norm settings shared by B0 through B4. The larger variants were
// ported from TensorFlow checkpoints and keep that framework's defaults.
const (
	defaultNormEpsilon  = 1e-5
	defaultNormMomentum = 0.1
	tfNormEpsilon       = 1e-3
	tfNormMomentum      = 0.01
)

var variantParams = map[Variant]Params{
	VariantB0: {WidthMult: 1.0, DepthMult: 1.0, Dropout: 0.2, NormEpsilon: defaultNormEpsilon, NormMomentum: defaultNormMomentum, TrainSize: 224},
	VariantB1: {WidthMult: 1.0, DepthMult: 1.1, Dropout: 0.2, NormEpsilon: defaultNormEpsilon, NormMomentum: defaultNormMomentum, TrainSize: 240},
	VariantB2: {WidthMult: 1.1, DepthMult: 1.2, Dropout: 0.3, NormEpsilon: defaultNormEpsilon, NormMomentum: defaultNormMomentum, TrainSize: 288},
	VariantB3: {WidthMult: 1.2, DepthMult: 1.4, Dropout: 0.3, NormEpsilon: defaultNormEpsilon, NormMomentum: defaultNormMomentum, TrainSize: 300},
	VariantB4: {WidthMult: 1.4, DepthMult: 1.8, Dropout: 0.4, NormEpsilon: defaultNormEpsilon, NormMomentum: defaultNormMomentum, TrainSize: 380},
	VariantB5: {WidthMult: 1.6, DepthMult: 2.2, Dropout: 0.4, NormEpsilon: tfNormEpsilon, NormMomentum: tfNormMomentum, TrainSize: 456},
	VariantB6: {WidthMult: 1.8, DepthMult: 2.6, Dropout: 0.5, NormEpsilon: tfNormEpsilon, NormMomentum: tfNormMomentum, TrainSize: 528},
	VariantB7: {WidthMult: 2.0, DepthMult: 3.1, Dropout: 0.5, NormEpsilon: tfNormEpsilon, NormMomentum: tfNormMomentum, TrainSize: 600},
}

// Variants lists the supported variants from B0 to B7.
func Variants() []Variant {
	return []Variant{
		VariantB0, VariantB1, VariantB2, VariantB3,
		VariantB4, VariantB5, VariantB6, VariantB7,
	}
}

// String returns the canonical variant name, e.g. "efficientnet-b0".
func (v Variant) String() string {
	return string(v)
}

// Params returns the variant's hyperparameters, or an error for names
// outside the family.
func (v Variant) Params() (Params, error) {
	p, ok := variantParams[v]
	if !ok {
		return Params{}, fmt.Errorf("unknown variant %q, supported variants are %s-%s", v, VariantB0, VariantB7)
	}
	return p, nil
}

// ParseVariant resolves a user-supplied name to a Variant. Both the full
// form "efficientnet-b3" and the short form "b3" are accepted, case
// insensitively.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("variant name is empty")
	}
	if !strings.HasPrefix(n, "efficientnet-") {
		n = "efficientnet-" + n
	}
	v := Variant(n)
	if _, ok := variantParams[v]; !ok {
		return "", fmt.Errorf("unknown variant %q, supported variants are %s-%s", name, VariantB0, VariantB7)
	}
	return v, nil
}
