package model

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testModelPath    = "../../models/iris.onnx"
	testMetadataPath = "../../models/iris_metadata.json"
)

// newTestServer builds a real ONNX session, skipping when the artifact or
// the onnxruntime shared library is not available in the environment.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("model artifact not present: %v", err)
	}

	s, err := NewServer(testModelPath, testMetadataPath)
	if err != nil {
		t.Skipf("onnxruntime unavailable: %v", err)
	}
	t.Cleanup(s.Close)

	return s
}

func TestServerPredictSetosa(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.Predict([]float32{5.1, 3.5, 1.4, 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.PredictedClass)
	assert.Equal(t, "setosa", resp.Class)
}

func TestServerPredictDeterministic(t *testing.T) {
	s := newTestServer(t)

	first, err := s.Predict([]float32{6.3, 3.3, 6.0, 2.5})
	require.NoError(t, err)
	second, err := s.Predict([]float32{6.3, 3.3, 6.0, 2.5})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestServerPredictWrongFeatureCount(t *testing.T) {
	s := newTestServer(t)

	_, err := s.Predict([]float32{5.1, 3.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 4 features")
}

func TestServerReload(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Reload())

	resp, err := s.Predict([]float32{5.1, 3.5, 1.4, 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.PredictedClass)
}
