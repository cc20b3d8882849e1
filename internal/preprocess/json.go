package preprocess

import "encoding/json"

// fittedState is the serialized form of a FittedPreprocessor. Maps marshal
// with sorted keys and nothing here carries a timestamp, so identical fits
// encode to identical bytes.
type fittedState struct {
	Spec     Spec                    `json:"spec"`
	Numeric  map[string]numericStat  `json:"numeric"`
	Category map[string]categoryStat `json:"category"`
	Classes  []string                `json:"classes"`
	Features []string                `json:"features"`
}

func (p *FittedPreprocessor) MarshalJSON() ([]byte, error) {
	return json.Marshal(fittedState{
		Spec:     p.spec,
		Numeric:  p.numeric,
		Category: p.category,
		Classes:  p.classes,
		Features: p.features,
	})
}

func (p *FittedPreprocessor) UnmarshalJSON(raw []byte) error {
	var st fittedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}
	p.spec = st.Spec
	p.numeric = st.Numeric
	p.category = st.Category
	p.classes = st.Classes
	p.features = st.Features
	if p.numeric == nil {
		p.numeric = map[string]numericStat{}
	}
	if p.category == nil {
		p.category = map[string]categoryStat{}
	}
	return nil
}
