// Webcam demo: classifies the camera feed with EfficientNet-B0 and
// overlays the top prediction on every frame.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	efficientnet "github.com/nvr-ai/go-efficientnet"
)

// Classify every Nth frame; the overlay keeps the last result in between.
const classifyInterval = 5

func main() {
	// set to use a video capture device 0
	deviceID := 0

	ctx := context.Background()

	// load the default pretrained B0
	model, err := efficientnet.B0(ctx, &efficientnet.Options{Pretrained: true, TopK: 1})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer model.Close()

	// open webcam
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer webcam.Close()

	// open display window
	window := gocv.NewWindow("EfficientNet")
	defer window.Close()

	// prepare image matrix
	img := gocv.NewMat()
	defer img.Close()

	// color for the overlay text
	green := color.RGBA{0, 255, 0, 0}

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	label := "warming up"
	frame := 0

	fmt.Printf("start reading camera device: %v\n", deviceID)
	for {
		if ok := webcam.Read(&img); !ok {
			fmt.Printf("cannot read device %v\n", deviceID)
			return
		}
		if img.Empty() {
			continue
		}

		// Update FPS calculation
		frameCount++
		currentTime := time.Now()
		elapsed := currentTime.Sub(lastTime).Seconds()

		// Calculate FPS every second
		if elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = currentTime
		}

		// classify every Nth frame
		frame++
		if frame%classifyInterval == 0 {
			decoded, err := img.ToImage()
			if err != nil {
				fmt.Printf("cannot convert frame: %v\n", err)
				continue
			}

			preds, err := model.Classify(ctx, decoded)
			if err != nil {
				fmt.Printf("classification failed: %v\n", err)
				continue
			}
			if len(preds) > 0 {
				label = fmt.Sprintf("%s (%.1f%%)", preds[0].Label, preds[0].Score*100)
			}
		}

		overlay := fmt.Sprintf("%s | FPS: %.2f", label, fps)
		gocv.PutText(&img, overlay, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, green, 2)

		// show the image in the window, and wait 1 millisecond
		window.IMShow(img)
		window.WaitKey(1)
	}
}
