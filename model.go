package apcluster

import (
	"fmt"

	"github.com/hupe1980/apcluster/distance"
)

// CustomMetric is the Model.Metric name recorded for runs that used
// WithDistanceFunc.
const CustomMetric = "Custom"

// Model is the persistent form of a clustering run: the parameters that
// produced it and its outcome.
type Model struct {
	Params        Params `json:"params"`
	Metric        string `json:"metric"`
	CompactLabels bool   `json:"compactLabels"`
	Labels        []int  `json:"labels"`
	Exemplars     []int  `json:"exemplars"`
	Iterations    int    `json:"iterations"`
	Converged     bool   `json:"converged"`
}

// Validate checks the parameters and that every label refers to an exemplar.
func (m *Model) Validate() error {
	if err := m.Params.Validate(); err != nil {
		return err
	}

	if m.Metric != CustomMetric {
		if _, err := distance.ParseMetric(m.Metric); err != nil {
			return invalid(err)
		}
	}

	n := len(m.Labels)
	if n > 0 && len(m.Exemplars) == 0 {
		return invalid(fmt.Errorf("model has %d labels but no exemplars", n))
	}

	valid := make(map[int]struct{}, len(m.Exemplars))
	for c, e := range m.Exemplars {
		if e < 0 || e >= n {
			return invalid(fmt.Errorf("exemplar %d out of range [0, %d)", e, n))
		}
		if c > 0 && e <= m.Exemplars[c-1] {
			return invalid(fmt.Errorf("exemplars not strictly ascending at %d", c))
		}
		if m.CompactLabels {
			valid[c] = struct{}{}
		} else {
			valid[e] = struct{}{}
		}
	}

	for i, l := range m.Labels {
		if _, ok := valid[l]; !ok {
			return invalid(fmt.Errorf("label %d of point %d does not name an exemplar", l, i))
		}
	}

	return nil
}

// NumClusters returns the number of exemplars.
func (m *Model) NumClusters() int { return len(m.Exemplars) }

// Clusterer rebuilds a Clusterer with the model's parameters and metric.
// Further options are applied first; the model's settings take precedence.
func (m *Model) Clusterer(optFns ...Option) (*Clusterer, error) {
	if m.Metric == CustomMetric {
		return nil, invalid(fmt.Errorf("model used a custom distance function"))
	}

	metric, err := distance.ParseMetric(m.Metric)
	if err != nil {
		return nil, invalid(err)
	}

	opts := append(append([]Option(nil), optFns...), WithMetric(metric), WithCompactLabels(m.CompactLabels))

	return NewFromParams(m.Params, opts...)
}
