package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	efficientnet "github.com/nvr-ai/go-efficientnet"
	"github.com/nvr-ai/go-efficientnet/images"
	"github.com/nvr-ai/go-efficientnet/profiler"
	"github.com/nvr-ai/go-efficientnet/weights"
)

var serveOpts struct {
	Variant string
	Weights string
	Addr    string
	TopK    int
}

// serveCmd represents the efficientnet command for serve.
var serveCmd = &cobra.Command{
	Use:          "serve [flags]",
	Short:        "Serve the classifier over HTTP",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveOpts.Variant, "variant", "b0", "specify the variant (b0-b7)")
	flags.StringVar(&serveOpts.Weights, "weights", "", "specify a weight entry by name")
	flags.StringVar(&serveOpts.Addr, "addr", ":8080", "listen address")
	flags.IntVar(&serveOpts.TopK, "top-k", efficientnet.DefaultTopK, "predictions per request")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind serve flags to viper: %w", err))
	}
}

// server holds the model and runtime profiler behind the HTTP handlers.
type server struct {
	model    *efficientnet.Model
	profiler *profiler.RuntimeProfiler
}

// modelCollector feeds the model's session counters into the profiler.
type modelCollector struct {
	model *efficientnet.Model
}

func (m modelCollector) CollectMetrics() map[string]float64 {
	stats := m.model.Metrics()
	return map[string]float64{
		"inference_count":      float64(stats.InferenceCount),
		"inference_latency_ms": float64(stats.AverageLatency) / float64(time.Millisecond),
		"inference_throughput": stats.Throughput,
	}
}

func runServe(ctx context.Context) error {
	model, err := buildModel(ctx, serveOpts.Variant, serveOpts.Weights, serveOpts.TopK)
	if err != nil {
		return err
	}
	defer model.Close()

	rp := profiler.NewRuntimeProfiler(profiler.Options{
		SampleInterval: 10 * time.Second,
		ReportInterval: time.Minute,
	})
	rp.AddMetricsCollector(modelCollector{model: model})
	rp.Start()
	defer rp.Stop()

	s := &server{model: model, profiler: rp}

	r := gin.Default()
	v1 := r.Group("/v1")
	v1.GET("/variants", s.listVariants)
	v1.GET("/weights", s.listWeights)
	v1.GET("/stats", s.stats)
	v1.POST("/classify", s.classify)

	return r.Run(serveOpts.Addr)
}

// apiError renders an error response.
func apiError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// listVariants returns the family's scaling parameters.
func (s *server) listVariants(c *gin.Context) {
	type variantInfo struct {
		Variant    string  `json:"variant"`
		Width      float64 `json:"width"`
		Depth      float64 `json:"depth"`
		Dropout    float64 `json:"dropout"`
		Resolution int     `json:"resolution"`
		Features   int     `json:"features"`
		Params     int64   `json:"params"`
	}

	infos := make([]variantInfo, 0, len(efficientnet.Variants()))
	for _, v := range efficientnet.Variants() {
		p, err := v.Params()
		if err != nil {
			apiError(c, http.StatusInternalServerError, err)
			return
		}
		infos = append(infos, variantInfo{
			Variant:    v.String(),
			Width:      p.WidthMult,
			Depth:      p.DepthMult,
			Dropout:    p.Dropout,
			Resolution: p.TrainSize,
			Features:   p.HeadChannels(),
			Params:     p.ParamCount(1000),
		})
	}

	c.JSON(http.StatusOK, gin.H{"variants": infos})
}

// listWeights returns the registry's entries and their metadata.
func (s *server) listWeights(c *gin.Context) {
	type weightInfo struct {
		Name string  `json:"name"`
		Arch string  `json:"arch"`
		Acc1 float64 `json:"acc1"`
		Acc5 float64 `json:"acc5"`
		Crop int     `json:"crop"`
		Size int64   `json:"size"`
	}

	var infos []weightInfo
	for _, name := range weights.Names() {
		entry, err := weights.Lookup(name)
		if err != nil {
			apiError(c, http.StatusInternalServerError, err)
			return
		}
		infos = append(infos, weightInfo{
			Name: entry.Name,
			Arch: entry.Arch,
			Acc1: entry.Meta.Acc1,
			Acc5: entry.Meta.Acc5,
			Crop: entry.Transform.CropSize,
			Size: entry.Size,
		})
	}

	c.JSON(http.StatusOK, gin.H{"weights": infos})
}

// stats returns a snapshot of runtime and operation statistics.
func (s *server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.profiler.Snapshot())
}

// classify accepts a multipart image upload and returns predictions.
func (s *server) classify(c *gin.Context) {
	defer s.profiler.StartOperation("classify")()

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		apiError(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apiError(c, http.StatusBadRequest, err)
		return
	}

	img, format, err := images.Decode(data)
	if err != nil {
		apiError(c, http.StatusBadRequest, err)
		return
	}

	t0 := time.Now()
	preds, err := s.model.Classify(c.Request.Context(), img)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err)
		return
	}

	if kParam := c.Query("k"); kParam != "" {
		if k, err := strconv.Atoi(kParam); err == nil && k > 0 && k < len(preds) {
			preds = preds[:k]
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"file":        header.Filename,
		"format":      format,
		"model":       s.model.Variant().String(),
		"elapsed_ms":  time.Since(t0).Milliseconds(),
		"predictions": preds,
	})
}
