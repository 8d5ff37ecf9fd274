package voiceprint

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXModel implements [Model] using ONNX Runtime for speaker embedding
// extraction. It handles the full pipeline from float32 samples to a
// unit-normalized embedding vector.
//
// # Model Pipeline
//
//  1. samples → [ComputeFbank] → mel filterbank features [T, 80]
//  2. features → ONNX inference → embedding (or temporal embeddings)
//  3. temporal output → element-wise mean across windows
//  4. L2-normalize
//
// # Thread Safety
//
// ONNXModel is safe for concurrent use; ONNX Runtime serializes Run calls
// internally and the remaining state is read-only after construction.
type ONNXModel struct {
	session    *ort.DynamicAdvancedSession
	dim        int
	fbankCfg   FbankConfig
	inputName  string
	outputName string

	closeOnce sync.Once
}

// The ONNX Runtime environment is global to the process. It is
// initialized once, on first model load.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return fmt.Errorf("%w: onnxruntime: %v", ErrModelUnavailable, ortInitErr)
	}
	return nil
}

// ONNXModelOption configures an ONNXModel.
type ONNXModelOption func(*ONNXModel)

// WithFbankConfig sets the filterbank configuration.
func WithFbankConfig(cfg FbankConfig) ONNXModelOption {
	return func(m *ONNXModel) {
		m.fbankCfg = cfg
	}
}

// WithEmbeddingDim overrides the expected embedding dimension.
// Default: 512.
func WithEmbeddingDim(dim int) ONNXModelOption {
	return func(m *ONNXModel) {
		if dim > 0 {
			m.dim = dim
		}
	}
}

// NewONNXModel loads a speaker-verification model from an .onnx file.
//
// The model must accept a [1, T, 80] fbank feature tensor and produce
// either a single embedding [1, D] or temporal embeddings [1, T', D].
// A missing model file or runtime reports ErrModelUnavailable.
func NewONNXModel(modelPath string, opts ...ONNXModelOption) (*ONNXModel, error) {
	m := &ONNXModel{
		dim:      512,
		fbankCfg: DefaultFbankConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, modelPath)
	}
	if err := initRuntime(); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("voiceprint: model info: %w", err)
	}
	if len(inputInfo) != 1 || len(outputInfo) < 1 {
		return nil, fmt.Errorf("voiceprint: unexpected model signature: %d inputs, %d outputs",
			len(inputInfo), len(outputInfo))
	}
	m.inputName = inputInfo[0].Name
	m.outputName = outputInfo[0].Name

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("voiceprint: session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{m.inputName},
		[]string{m.outputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("voiceprint: create session: %w", err)
	}
	m.session = session
	return m, nil
}

// Extract implements [Model].
func (m *ONNXModel) Extract(samples []float32) ([]float32, error) {
	feats := ComputeFbank(samples, m.fbankCfg)
	if len(feats) == 0 {
		return nil, ErrEmptySpan
	}

	numFrames := len(feats)
	numMels := m.fbankCfg.NumMels
	flat := make([]float32, numFrames*numMels)
	for t, frame := range feats {
		copy(flat[t*numMels:], frame)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(numFrames), int64(numMels)), flat)
	if err != nil {
		return nil, fmt.Errorf("voiceprint: input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("voiceprint: inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("voiceprint: unexpected output type %T", outputs[0])
	}

	emb := reduceOutput(tensor.GetData(), m.dim)
	if emb == nil {
		return nil, fmt.Errorf("voiceprint: output shape %v incompatible with dimension %d",
			tensor.GetShape(), m.dim)
	}
	return Normalize(emb)
}

// reduceOutput collapses a model output to a single D-length vector.
// A [1, D] tensor passes through; a temporal [1, T, D] tensor reduces by
// element-wise mean across the T rows. The data is copied out since the
// backing tensor is destroyed by the caller.
func reduceOutput(data []float32, dim int) []float32 {
	if len(data) == 0 || len(data)%dim != 0 {
		return nil
	}
	rows := len(data) / dim
	if rows == 1 {
		out := make([]float32, dim)
		copy(out, data)
		return out
	}
	temporal := make([][]float32, rows)
	for i := range temporal {
		temporal[i] = data[i*dim : (i+1)*dim]
	}
	return meanVector(temporal)
}

// Dimension implements [Model].
func (m *ONNXModel) Dimension() int { return m.dim }

// Close implements [Model].
func (m *ONNXModel) Close() error {
	m.closeOnce.Do(func() {
		if m.session != nil {
			m.session.Destroy()
		}
	})
	return nil
}
