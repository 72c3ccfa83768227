package scoring

import "sort"

// Scored ties a prediction to the record it was computed for.
type Scored struct {
	Key        string     `json:"key"`
	Company    string     `json:"company"`
	Position   string     `json:"position"`
	Prediction Prediction `json:"prediction"`
}

// FactorImpact is the mean impact of one factor across many predictions.
type FactorImpact struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
}

type Summary struct {
	Predictions        []Scored       `json:"predictions"`
	AverageProbability int            `json:"averageProbability"`
	FactorImpacts      []FactorImpact `json:"factorImpacts"`
}

// Summarize scores every record. Predictions are ordered by probability,
// highest first; factor impacts are averaged per factor name.
func (e *Engine) Summarize(records []Record) (Summary, error) {
	s := Summary{
		Predictions:   make([]Scored, 0, len(records)),
		FactorImpacts: []FactorImpact{},
	}
	for _, r := range records {
		p, err := e.Predict(r)
		if err != nil {
			return Summary{}, err
		}
		s.Predictions = append(s.Predictions, Scored{
			Key:        r.Key(),
			Company:    r.Company,
			Position:   r.Position,
			Prediction: p,
		})
	}
	sort.SliceStable(s.Predictions, func(i, j int) bool {
		return s.Predictions[i].Prediction.SuccessProbability > s.Predictions[j].Prediction.SuccessProbability
	})

	if len(s.Predictions) == 0 {
		return s, nil
	}

	total := 0
	sums := map[string]int{}
	var order []string
	for _, sc := range s.Predictions {
		total += sc.Prediction.SuccessProbability
		for _, kf := range sc.Prediction.KeyFactors {
			if _, ok := sums[kf.Factor]; !ok {
				order = append(order, kf.Factor)
			}
			sums[kf.Factor] += kf.Impact
		}
	}
	n := float64(len(s.Predictions))
	s.AverageProbability = roundHalfUp(float64(total) / n)
	for _, name := range order {
		s.FactorImpacts = append(s.FactorImpacts, FactorImpact{Factor: name, Impact: float64(sums[name]) / n})
	}
	sort.SliceStable(s.FactorImpacts, func(i, j int) bool {
		return s.FactorImpacts[i].Impact > s.FactorImpacts[j].Impact
	})
	return s, nil
}
