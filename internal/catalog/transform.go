package catalog

import (
	"encoding/json"
	"fmt"
	"io"
)

// Transform is a fitted per-column affine preprocessor:
// out[i] = (in[i] - Center[i]) / Scale[i] * Weight[i].
type Transform struct {
	Columns []string  `json:"columns"`
	Center  []float64 `json:"center"`
	Scale   []float64 `json:"scale"`
	Weight  []float64 `json:"weight,omitempty"`
}

// DecodeTransform reads a JSON transform and checks its shape.
func DecodeTransform(r io.Reader) (*Transform, error) {
	var t Transform
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("catalog: decoding transform: %w", err)
	}
	n := len(t.Columns)
	if n == 0 {
		return nil, fmt.Errorf("catalog: transform has no columns")
	}
	if len(t.Center) != n || len(t.Scale) != n {
		return nil, fmt.Errorf("catalog: transform has %d columns, %d centers, %d scales", n, len(t.Center), len(t.Scale))
	}
	if len(t.Weight) != 0 && len(t.Weight) != n {
		return nil, fmt.Errorf("catalog: transform has %d columns but %d weights", n, len(t.Weight))
	}
	return &t, nil
}

// Apply maps a raw feature vector into model space.
func (t *Transform) Apply(in []float64) ([]float64, error) {
	if len(in) != len(t.Columns) {
		return nil, fmt.Errorf("%w: got %d features, transform expects %d", ErrDimensionMismatch, len(in), len(t.Columns))
	}
	out := make([]float64, len(in))
	for i, v := range in {
		scale := t.Scale[i]
		if scale == 0 {
			// constant column at fit time
			scale = 1
		}
		x := (v - t.Center[i]) / scale
		if len(t.Weight) > 0 {
			x *= t.Weight[i]
		}
		out[i] = x
	}
	return out, nil
}
