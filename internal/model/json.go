package model

import "encoding/json"

type modelState struct {
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
	Features []string  `json:"features"`
	Epochs   int       `json:"epochs"`
}

func (m *LogisticRegression) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelState{
		Weights:  m.weights,
		Bias:     m.bias,
		Features: m.features,
		Epochs:   m.epochs,
	})
}

func (m *LogisticRegression) UnmarshalJSON(raw []byte) error {
	var st modelState
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}
	m.weights = st.Weights
	m.bias = st.Bias
	m.features = st.Features
	m.epochs = st.Epochs
	return nil
}
