// Package providers - CPU based execution provider.
package providers

// CPUOptions contains arguments for the default CPU provider. The provider
// itself needs no configuration; threading is tuned on Config.
type CPUOptions struct{}

// isProviderOptions is a marker function to ensure the options are valid.
func (CPUOptions) isProviderOptions() {}
