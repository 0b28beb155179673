// Command webcam runs the classification pipeline live against a video
// capture device, issuing one asynchronous inference at a time so the
// capture loop never stalls on the model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gocv.io/x/gocv"

	"github.com/vision-ai-lab/go-classify/decode"
	"github.com/vision-ai-lab/go-classify/inference"
	"github.com/vision-ai-lab/go-classify/inference/providers"
	"github.com/vision-ai-lab/go-classify/labels"
	"github.com/vision-ai-lab/go-classify/pipeline"
)

// terminalPresenter rewrites one status line per frame.
type terminalPresenter struct{}

func (terminalPresenter) Present(result decode.PredictionResult, fps int) {
	if !result.Ready {
		fmt.Printf("\rwaiting for model... | FPS: %d    ", fps)
		return
	}
	fmt.Printf("\r%s (%.2f) | FPS: %d    ", result.Label, result.Confidence, fps)
}

func main() {
	var (
		deviceID     int
		modelPath    string
		metadataPath string
		labelsPath   string
		backend      string
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.StringVar(&modelPath, "model", "model.onnx", "Path to the serialized model")
	flag.StringVar(&metadataPath, "metadata", "model.json", "Path to the model metadata document")
	flag.StringVar(&labelsPath, "labels", "labels.txt", "Path to the class label table")
	flag.StringVar(&backend, "backend", "", "Execution backend override (cpu, cuda, coreml, openvino)")
	flag.Parse()

	cfg, err := inference.LoadConfig(metadataPath)
	if err != nil {
		log.Fatalf("loading metadata: %v", err)
	}
	if backend != "" {
		cfg.Backend = providers.ProviderBackend(backend)
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

	classifier := pipeline.New(pipeline.Options{
		Model:     model,
		Labels:    table,
		Presenter: terminalPresenter{},
	})
	if err := classifier.Initialize(); err != nil {
		log.Fatalf("initializing pipeline: %v", err)
	}
	defer func() {
		if err := classifier.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		log.Fatalf("opening capture device %d: %v", deviceID, err)
	}
	defer webcam.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	fmt.Printf("start reading camera device: %v (backend: %s)\n", deviceID, model.Backend())

	ctx := context.Background()
	for {
		if ok := webcam.Read(&mat); !ok {
			fmt.Printf("\ncannot read device %v\n", deviceID)
			return
		}
		if mat.Empty() {
			continue
		}

		frame, err := mat.ToImage()
		if err != nil {
			log.Printf("converting frame: %v", err)
			continue
		}

		if _, err := classifier.StepAsync(ctx, frame); err != nil {
			log.Printf("classifying frame: %v", err)
		}
	}
}
