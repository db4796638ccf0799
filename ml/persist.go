package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// snapshot is the on-disk form.
type snapshot struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	LR      float64   `json:"lr"`
}

// rawSnapshot uses pointers so a missing or null value is told apart from zero.
type rawSnapshot struct {
	Weights []*float64 `json:"weights"`
	Bias    *float64   `json:"bias"`
	LR      *float64   `json:"lr"`
}

func (m *LinearRegression) Encode(w io.Writer) error {
	payload, err := m.marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("%w: write model: %v", ErrIO, err)
	}
	return nil
}

func (m *LinearRegression) Save(path string) error {
	payload, err := m.marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("%w: write model %s: %v", ErrIO, path, err)
	}
	return nil
}

func (m *LinearRegression) marshal() ([]byte, error) {
	for i, w := range m.Weights {
		if !isFinite(w) {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrSerialization, i, w)
		}
	}
	if !isFinite(m.Bias) {
		return nil, fmt.Errorf("%w: bias is %v", ErrSerialization, m.Bias)
	}
	if !isFinite(m.LR) {
		return nil, fmt.Errorf("%w: learning rate is %v", ErrSerialization, m.LR)
	}

	weights := m.Weights
	if weights == nil {
		weights = []float64{}
	}
	payload, err := json.MarshalIndent(snapshot{Weights: weights, Bias: m.Bias, LR: m.LR}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return append(payload, '\n'), nil
}

func Load(path string) (*LinearRegression, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read model %s: %v", ErrIO, path, err)
	}
	return unmarshal(payload)
}

func Decode(r io.Reader) (*LinearRegression, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read model: %v", ErrIO, err)
	}
	return unmarshal(payload)
}

func unmarshal(payload []byte) (*LinearRegression, error) {
	var snap rawSnapshot
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after snapshot", ErrDeserialization)
	}
	switch {
	case snap.Weights == nil:
		return nil, fmt.Errorf("%w: missing field \"weights\"", ErrDeserialization)
	case snap.Bias == nil:
		return nil, fmt.Errorf("%w: missing field \"bias\"", ErrDeserialization)
	case snap.LR == nil:
		return nil, fmt.Errorf("%w: missing field \"lr\"", ErrDeserialization)
	}
	weights := make([]float64, len(snap.Weights))
	for i, w := range snap.Weights {
		if w == nil {
			return nil, fmt.Errorf("%w: weight %d is null", ErrDeserialization, i)
		}
		weights[i] = *w
	}
	return &LinearRegression{
		Weights: weights,
		Bias:    *snap.Bias,
		LR:      *snap.LR,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
