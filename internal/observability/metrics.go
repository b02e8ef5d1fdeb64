// Package observability provides Prometheus metrics for engine runs.
package observability

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/roach88/loopsim/internal/engine"
)

// Metrics counts executed tasks, failures and ticks. It implements
// engine.Observer.
type Metrics struct {
	// TasksRunTotal counts successfully executed tasks by queue.
	TasksRunTotal *prometheus.CounterVec

	// TaskErrorsTotal counts failed tasks by queue.
	TaskErrorsTotal *prometheus.CounterVec

	// TicksTotal counts steps by kind: work or idle.
	TicksTotal *prometheus.CounterVec
}

var _ engine.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TasksRunTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loopsim_tasks_run_total",
				Help: "Tasks executed",
			},
			[]string{"queue"},
		),
		TaskErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loopsim_task_errors_total",
				Help: "Tasks that returned an error or panicked",
			},
			[]string{"queue"},
		),
		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loopsim_ticks_total",
				Help: "Engine steps",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.TasksRunTotal, m.TaskErrorsTotal, m.TicksTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// TaskRan implements engine.Observer.
func (m *Metrics) TaskRan(q engine.QueueType) {
	m.TasksRunTotal.WithLabelValues(string(q)).Inc()
}

// TaskFailed implements engine.Observer.
func (m *Metrics) TaskFailed(q engine.QueueType, _ error) {
	m.TaskErrorsTotal.WithLabelValues(string(q)).Inc()
}

// Ticked implements engine.Observer.
func (m *Metrics) Ticked(idle bool) {
	kind := "work"
	if idle {
		kind = "idle"
	}
	m.TicksTotal.WithLabelValues(kind).Inc()
}

// Sample is one counter value from a gathered registry.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// String renders the sample in exposition style: name{k="v"} 3.
func (s Sample) String() string {
	if len(s.Labels) == 0 {
		return fmt.Sprintf("%s %g", s.Name, s.Value)
	}
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := s.Name + "{"
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%q", k, s.Labels[k])
	}
	return fmt.Sprintf("%s} %g", out, s.Value)
}

// Summary gathers every counter from g, sorted by name then labels.
func Summary(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: labelMap(metric.GetLabel()),
				Value:  metric.GetCounter().GetValue(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].String() < out[j].String()
	})
	return out, nil
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.GetName()] = p.GetValue()
	}
	return m
}
