// The efficientnet command classifies images with pretrained EfficientNet
// checkpoints, manages the local checkpoint cache, benchmarks variants and
// serves the classifier over HTTP.
package main

func main() {
	Execute()
}
