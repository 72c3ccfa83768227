// Package scoring assigns a success probability to a job application.
//
// The score is a weighted sum of five features pushed through a sigmoid.
// It is a heuristic, not a trained model.
package scoring

import (
	"math"
	"sort"
)

type Feature string

const (
	FeatureSkills             Feature = "skills"
	FeatureFollowUp           Feature = "followUp"
	FeatureApplicationQuality Feature = "applicationQuality"
	FeatureCompanySize        Feature = "companySize"
	FeatureTimeToApplication  Feature = "timeToApplication"
)

// Weight pairs a feature with its contribution to the raw score.
type Weight struct {
	Feature Feature
	Value   float64
}

// WeightTable is ordered; the order drives the dot product and the
// order of recommendations.
type WeightTable [5]Weight

func DefaultWeights() WeightTable {
	return WeightTable{
		{FeatureSkills, 0.35},
		{FeatureFollowUp, 0.15},
		{FeatureApplicationQuality, 0.25},
		{FeatureCompanySize, 0.10},
		{FeatureTimeToApplication, 0.15},
	}
}

func DefaultReferenceSkills() []string {
	return []string{"React", "TypeScript", "Python", "Data Science", "Machine Learning"}
}

type FeatureVector struct {
	SkillsMatch float64 `json:"skillsMatch"`
	FollowUp    float64 `json:"followUpScore"`
	Quality     float64 `json:"qualityScore"`
	CompanyFit  float64 `json:"companyFactor"`
	Timing      float64 `json:"timingFactor"`
}

// Value returns the component for f, 0 for unknown features.
func (v FeatureVector) Value(f Feature) float64 {
	switch f {
	case FeatureSkills:
		return v.SkillsMatch
	case FeatureFollowUp:
		return v.FollowUp
	case FeatureApplicationQuality:
		return v.Quality
	case FeatureCompanySize:
		return v.CompanyFit
	case FeatureTimeToApplication:
		return v.Timing
	}
	return 0
}

type KeyFactor struct {
	Factor string `json:"factor"`
	Impact int    `json:"impact"`
}

type Prediction struct {
	SuccessProbability int         `json:"successProbability"`
	RecommendedActions []string    `json:"recommendedActions"`
	KeyFactors         []KeyFactor `json:"keyFactors"`
}

type rule struct {
	name      string
	threshold float64
	action    string
}

var rules = map[Feature]rule{
	FeatureSkills:             {"Skills Match", 0.5, "Add more relevant skills to your application"},
	FeatureFollowUp:           {"Follow-up", 0.9, "Follow up on your application after 5-7 days"},
	FeatureApplicationQuality: {"Application Quality", 0.7, "Improve your resume and cover letter quality"},
	FeatureCompanySize:        {"Company Fit", 0, ""},
	FeatureTimeToApplication:  {"Application Timing", 0.5, "Apply earlier to job postings for better results"},
}

// DisplayName is the label a feature carries in key factors.
func DisplayName(f Feature) string {
	return rules[f].name
}

// Engine is immutable after construction and safe for concurrent use as
// long as its FactorSource is.
type Engine struct {
	weights   WeightTable
	reference map[string]struct{}
	refCount  int
	factors   FactorSource
}

type Option func(*Engine)

func WithWeights(w WeightTable) Option {
	return func(e *Engine) { e.weights = w }
}

func WithReferenceSkills(skills []string) Option {
	return func(e *Engine) { e.setReference(skills) }
}

func WithFactorSource(src FactorSource) Option {
	return func(e *Engine) { e.factors = src }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		factors: NewRandomFactors(nil),
	}
	e.setReference(DefaultReferenceSkills())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) setReference(skills []string) {
	e.reference = make(map[string]struct{}, len(skills))
	for _, s := range skills {
		e.reference[s] = struct{}{}
	}
	e.refCount = len(e.reference)
}

// Weights returns a copy of the engine's weight table.
func (e *Engine) Weights() WeightTable {
	return e.weights
}

// SkillsMatch is the fraction of the reference set covered by the
// record's skills. Matching is exact and case-sensitive.
func (e *Engine) SkillsMatch(skills []string) float64 {
	if e.refCount == 0 {
		return 0
	}
	n := 0
	for _, s := range skills {
		if _, ok := e.reference[s]; ok {
			n++
		}
	}
	return float64(n) / float64(e.refCount)
}

// ExtractFeatures does not validate r. Quality is divided by 100 without
// clamping, so out-of-range quality yields a component above 1.
func (e *Engine) ExtractFeatures(r Record) FeatureVector {
	v := FeatureVector{
		SkillsMatch: e.SkillsMatch(r.Skills),
		Quality:     0.5,
		CompanyFit:  e.factors.CompanyFactor(),
		Timing:      e.factors.TimingFactor(),
	}
	if r.FollowUpDone {
		v.FollowUp = 1
	}
	if r.ApplicationQuality != nil {
		v.Quality = float64(*r.ApplicationQuality) / 100
	}
	return v
}

func (e *Engine) Predict(r Record) (Prediction, error) {
	if err := Validate(r); err != nil {
		return Prediction{}, err
	}
	return e.score(e.ExtractFeatures(r)), nil
}

func (e *Engine) score(v FeatureVector) Prediction {
	raw := 0.0
	for _, w := range e.weights {
		raw += v.Value(w.Feature) * w.Value
	}

	p := Prediction{
		SuccessProbability: roundHalfUp(sigmoid(raw*2-1) * 100),
		RecommendedActions: []string{},
		KeyFactors:         make([]KeyFactor, 0, len(e.weights)),
	}
	for _, w := range e.weights {
		value := v.Value(w.Feature)
		rl := rules[w.Feature]
		p.KeyFactors = append(p.KeyFactors, KeyFactor{
			Factor: DisplayName(w.Feature),
			Impact: roundHalfUp(value * w.Value * 100),
		})
		if rl.action != "" && value < rl.threshold {
			p.RecommendedActions = append(p.RecommendedActions, rl.action)
		}
	}
	sort.SliceStable(p.KeyFactors, func(i, j int) bool {
		return p.KeyFactors[i].Impact > p.KeyFactors[j].Impact
	})
	return p
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
