package predictor

import (
	"context"
	"runtime"
	"sync"

	"github.com/predictivelabs/trader/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXPredictorConfig configures the ONNX model backend.
type ONNXPredictorConfig struct {
	ModelPath string `json:"model_path" yaml:"model_path" validate:"required"`
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	InputName   string `json:"input_name" yaml:"input_name"`
	OutputName  string `json:"output_name" yaml:"output_name"`
	// Conservative scales the normalized model output toward the window
	// anchor. 1.0 leaves the prediction untouched; values below 1 shrink it.
	Conservative float64 `json:"conservative" yaml:"conservative" validate:"gte=0"`
}

var ortInitOnce sync.Once

func initializeORT(libraryPath string) error {
	var err error

	ortInitOnce.Do(func() {
		if libraryPath == "" {
			switch runtime.GOOS {
			case "windows":
				libraryPath = "onnxruntime.dll"
			case "darwin":
				libraryPath = "libonnxruntime.dylib"
			default:
				libraryPath = "/usr/lib/libonnxruntime.so"
			}
		}

		ort.SetSharedLibraryPath(libraryPath)
		err = ort.InitializeEnvironment()
	})

	return err
}

// ONNXPredictor runs a price model exported to ONNX. The model consumes one
// normalized window of minute bars and emits a single normalized price, which
// is scaled by the conservative factor and mapped back to price space.
type ONNXPredictor struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	bars    BarSource

	conservative float64

	// mu serializes inference; the session's tensors are reused across runs.
	mu sync.Mutex
}

// NewONNXPredictor loads the model and prepares an inference session.
func NewONNXPredictor(config ONNXPredictorConfig, bars BarSource) (*ONNXPredictor, error) {
	if err := initializeORT(config.LibraryPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeModelLoadFailed, "failed to initialize onnxruntime", err)
	}

	inputName := config.InputName
	if inputName == "" {
		inputName = "input"
	}

	outputName := config.OutputName
	if outputName == "" {
		outputName = "output"
	}

	conservative := config.Conservative
	if conservative == 0 {
		conservative = 1.0
	}

	inputShape := ort.NewShape(1, WindowBars, WindowFeatures)

	inputTensor, err := ort.NewTensor(inputShape, make([]float32, WindowBars*WindowFeatures))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeModelLoadFailed, "failed to create input tensor", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()

		return nil, errors.Wrap(errors.ErrCodeModelLoadFailed, "failed to create output tensor", err)
	}

	session, err := ort.NewAdvancedSession(config.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()

		return nil, errors.Wrap(errors.ErrCodeModelLoadFailed, "failed to create onnx session", err)
	}

	return &ONNXPredictor{
		session:      session,
		input:        inputTensor,
		output:       outputTensor,
		bars:         bars,
		conservative: conservative,
	}, nil
}

// PredictPrice implements Predictor.
func (p *ONNXPredictor) PredictPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := p.bars.RecentBars(ctx, symbol, WindowBars)
	if err != nil {
		return 0, err
	}

	features, norm, err := Normalize(bars)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.input.GetData(), features)

	if err := p.session.Run(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInferenceFailed, "onnx inference failed", err)
	}

	raw := float64(p.output.GetData()[0])

	return norm.Denormalize(raw * p.conservative), nil
}

// Close releases the session and its tensors.
func (p *ONNXPredictor) Close() {
	if p.session != nil {
		p.session.Destroy()
	}

	if p.input != nil {
		p.input.Destroy()
	}

	if p.output != nil {
		p.output.Destroy()
	}
}

var _ Predictor = (*ONNXPredictor)(nil)
