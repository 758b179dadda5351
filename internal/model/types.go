package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata describes the ONNX artifact: tensor shapes and the class names
// the output scores map to. It lives in a JSON file next to the model.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
}

// LoadMetadata reads and parses the metadata file.
func LoadMetadata(path string) (Metadata, error) {
	var metadata Metadata

	data, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}

	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(metadata.Classes) == 0 {
		return metadata, fmt.Errorf("metadata has no classes")
	}

	return metadata, nil
}

// FeatureCount is the number of values one input row holds, the product of
// the input shape dimensions.
func (m Metadata) FeatureCount() int {
	if len(m.InputShape) == 0 {
		return 0
	}
	count := 1
	for _, dim := range m.InputShape {
		count *= int(dim)
	}
	return count
}

// PredictionRequest carries the four iris measurements. Fields are pointers
// so a missing key is distinguishable from an explicit zero.
type PredictionRequest struct {
	SepalLength *float32 `json:"sepal_length"`
	SepalWidth  *float32 `json:"sepal_width"`
	PetalLength *float32 `json:"petal_length"`
	PetalWidth  *float32 `json:"petal_width"`
}

// Features returns the measurements in the order the model was trained on,
// or an error naming the first missing field.
func (r *PredictionRequest) Features() ([]float32, error) {
	fields := []struct {
		name  string
		value *float32
	}{
		{"sepal_length", r.SepalLength},
		{"sepal_width", r.SepalWidth},
		{"petal_length", r.PetalLength},
		{"petal_width", r.PetalWidth},
	}

	features := make([]float32, 0, len(fields))
	for _, f := range fields {
		if f.value == nil {
			return nil, fmt.Errorf("missing required field %q", f.name)
		}
		features = append(features, *f.value)
	}
	return features, nil
}

type PredictionResponse struct {
	PredictedClass int     `json:"predicted_class"`
	Class          string  `json:"class"`
	Confidence     float32 `json:"confidence"`
}
