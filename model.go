package conformal

import "time"

// Model is a serializable snapshot of a fitted wrapper's residual matrix
type Model struct {
	Method        Method      `json:"method" yaml:"method"`
	InitialWindow string      `json:"initial_window" yaml:"initial_window"`
	Cutoff        time.Time   `json:"cutoff" yaml:"cutoff"`
	Index         []time.Time `json:"index" yaml:"index"`
	Residuals     []Values    `json:"residuals" yaml:"residuals"`
}

// Model returns the residual matrix along with the settings it was computed with
func (iv *Intervals) Model() (Model, error) {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	if iv.fitted == nil {
		return Model{}, ErrNotFitted
	}
	m, err := iv.residualsMatrix()
	if err != nil {
		return Model{}, err
	}

	rows := m.Rows()
	res := make([]Values, len(rows))
	for i, r := range rows {
		res[i] = r
	}
	return Model{
		Method:        iv.opt.Method,
		InitialWindow: iv.opt.InitialWindow.String(),
		Cutoff:        iv.fitted.Cutoff(),
		Index:         m.Index(),
		Residuals:     res,
	}, nil
}
