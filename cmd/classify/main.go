// Command classify runs the classification pipeline over an extracted
// frame sequence and prints per-frame predictions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vision-ai-lab/go-classify/decode"
	"github.com/vision-ai-lab/go-classify/inference"
	"github.com/vision-ai-lab/go-classify/inference/providers"
	"github.com/vision-ai-lab/go-classify/labels"
	"github.com/vision-ai-lab/go-classify/pipeline"
	"github.com/vision-ai-lab/go-classify/profiler"
	"github.com/vision-ai-lab/go-classify/util"
)

// consolePresenter prints each prediction as a frame-status line.
type consolePresenter struct {
	frame int
}

func (p *consolePresenter) Present(result decode.PredictionResult, fps int) {
	ready := "model warming up"
	if result.Ready {
		ready = "ok"
	}
	fmt.Printf("[Frame %d] %s (%.2f) | %s | FPS: %d\n",
		p.frame, result.Label, result.Confidence, ready, fps)
	p.frame++
}

func main() {
	var (
		modelPath     string
		metadataPath  string
		labelsPath    string
		framesDir     string
		backend       string
		minConfidence float64
		async         bool
		profile       bool
	)
	flag.StringVar(&modelPath, "model", "model.onnx", "Path to the serialized model")
	flag.StringVar(&metadataPath, "metadata", "model.json", "Path to the model metadata document")
	flag.StringVar(&labelsPath, "labels", "labels.txt", "Path to the class label table")
	flag.StringVar(&framesDir, "frames", "frames", "Directory of extracted frames to classify")
	flag.StringVar(&backend, "backend", "", "Execution backend override (cpu, cuda, coreml, openvino)")
	flag.Float64Var(&minConfidence, "min-confidence", -1, "Confidence threshold override")
	flag.BoolVar(&async, "async", false, "Use asynchronous readback mode")
	flag.BoolVar(&profile, "profile", false, "Print per-stage timing statistics at the end")
	flag.Parse()

	cfg, err := inference.LoadConfig(metadataPath)
	if err != nil {
		log.Fatalf("loading metadata: %v", err)
	}
	if backend != "" {
		cfg.Backend = providers.ProviderBackend(backend)
	}
	if minConfidence >= 0 {
		cfg.MinConfidence = float32(minConfidence)
	}

	table, err := labels.Load(labelsPath)
	if err != nil {
		log.Fatalf("loading labels: %v", err)
	}

	modelBytes, err := os.ReadFile(modelPath)
	if err != nil {
		log.Fatalf("reading model: %v", err)
	}

	model, err := inference.LoadModel(modelBytes, cfg)
	if err != nil {
		log.Fatalf("loading model: %v", err)
	}

	var prof *profiler.StageProfiler
	if profile {
		prof = profiler.New(0)
	}

	classifier := pipeline.New(pipeline.Options{
		Model:     model,
		Labels:    table,
		Presenter: &consolePresenter{},
		Profiler:  prof,
	})
	if err := classifier.Initialize(); err != nil {
		log.Fatalf("initializing pipeline: %v", err)
	}
	defer func() {
		if err := classifier.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	frames, err := util.LoadFrameDirectory(framesDir)
	if err != nil {
		log.Fatalf("loading frames: %v", err)
	}
	if len(frames) == 0 {
		log.Fatalf("no frames found in %s", framesDir)
	}

	fmt.Printf("Model loaded: %s (backend: %s, input %dx%d, %d classes)\n",
		modelPath, model.Backend(), cfg.InputWidth, cfg.InputHeight, cfg.ClassCount)
	fmt.Printf("Classifying %d frames from %s\n", len(frames), framesDir)

	ctx := context.Background()
	for _, frame := range frames {
		var err error
		if async {
			_, err = classifier.StepAsync(ctx, frame.Image)
		} else {
			_, err = classifier.Step(ctx, frame.Image)
		}
		if err != nil {
			log.Printf("frame %s: %v", frame.Path, err)
		}
	}

	final := classifier.Result()
	fmt.Printf("Done. Final prediction: %s (%.2f)\n", final.Label, final.Confidence)

	if prof != nil {
		prof.Report(os.Stdout)
	}
}
