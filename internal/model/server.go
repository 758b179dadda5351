package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Classifier is what the HTTP layer depends on. *Server implements it; tests
// substitute a stub.
type Classifier interface {
	Predict(features []float32) (*PredictionResponse, error)
}

var initEnvOnce sync.Once

// Server wraps a single ONNX session and its pre-allocated tensors. The
// tensors are shared across calls, so Predict and Reload serialize on mu.
type Server struct {
	mu           sync.Mutex
	modelPath    string
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	Metadata     Metadata
}

// NewServer loads the metadata and builds the initial session. The artifact
// is deserialized once here, not per request; Reload refreshes it.
func NewServer(modelPath, metadataPath string) (*Server, error) {
	var initErr error
	initEnvOnce.Do(func() {
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", initErr)
	}

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		modelPath: modelPath,
		Metadata:  metadata,
	}

	session, input, output, err := s.newSession()
	if err != nil {
		return nil, err
	}
	s.session, s.inputTensor, s.outputTensor = session, input, output

	return s, nil
}

func (s *Server) newSession() (*ort.AdvancedSession, *ort.Tensor[float32], *ort.Tensor[float32], error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.InputShape...))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, nil, nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(s.modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, nil, nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return session, inputTensor, outputTensor, nil
}

// Predict runs one inference over a single feature row and returns the
// highest-scoring class.
func (s *Server) Predict(features []float32) (*PredictionResponse, error) {
	if expected := s.Metadata.FeatureCount(); len(features) != expected {
		return nil, fmt.Errorf("expected %d features, got %d", expected, len(features))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), features)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := s.outputTensor.GetData()
	if len(scores) > len(s.Metadata.Classes) {
		scores = scores[:len(s.Metadata.Classes)]
	}
	idx, score := argmax(scores)

	return &PredictionResponse{
		PredictedClass: idx,
		Class:          s.Metadata.Classes[idx],
		Confidence:     score,
	}, nil
}

// Reload rebuilds the session from the artifact currently on disk and swaps
// it in. On failure the old session keeps serving.
func (s *Server) Reload() error {
	session, input, output, err := s.newSession()
	if err != nil {
		return err
	}

	s.mu.Lock()
	oldSession, oldInput, oldOutput := s.session, s.inputTensor, s.outputTensor
	s.session, s.inputTensor, s.outputTensor = session, input, output
	s.mu.Unlock()

	destroySession(oldSession, oldInput, oldOutput)
	return nil
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	destroySession(s.session, s.inputTensor, s.outputTensor)
	s.session, s.inputTensor, s.outputTensor = nil, nil, nil
}

func destroySession(session *ort.AdvancedSession, input, output *ort.Tensor[float32]) {
	if input != nil {
		input.Destroy()
	}
	if output != nil {
		output.Destroy()
	}
	if session != nil {
		session.Destroy()
	}
}

func argmax(scores []float32) (int, float32) {
	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}
	return maxIdx, maxVal
}
