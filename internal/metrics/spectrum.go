package metrics

import (
	"math"

	"github.com/san-kum/aeromodal/internal/dynamo"
)

// Observer accumulates a scalar summary over a set of eigenvalues.
type Observer interface {
	Name() string
	Observe(v complex128)
	Value() float64
	Reset()
}

// Margin tracks the largest real part seen. A positive value means an
// unstable root.
type Margin struct {
	name    string
	max     float64
	samples int
}

func NewMargin() *Margin {
	return &Margin{name: "stability_margin"}
}

func (m *Margin) Name() string { return m.name }

func (m *Margin) Observe(v complex128) {
	if m.samples == 0 || real(v) > m.max {
		m.max = real(v)
	}
	m.samples++
}

func (m *Margin) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.max
}

func (m *Margin) Reset() {
	m.max = 0
	m.samples = 0
}

// MinDamping tracks the smallest damping ratio among oscillatory roots.
// Roots with |Im| below threshold are ignored.
type MinDamping struct {
	name      string
	threshold float64
	min       float64
	samples   int
}

func NewMinDamping(threshold float64) *MinDamping {
	return &MinDamping{
		name:      "min_damping_ratio",
		threshold: threshold,
		min:       math.Inf(1),
	}
}

func (d *MinDamping) Name() string { return d.name }

func (d *MinDamping) Observe(v complex128) {
	if math.Abs(imag(v)) <= d.threshold {
		return
	}
	d.samples++
	if z := dynamo.DampingRatio(v); z < d.min {
		d.min = z
	}
}

func (d *MinDamping) Value() float64 {
	if d.samples == 0 {
		return 1.0
	}
	return d.min
}

func (d *MinDamping) Reset() {
	d.min = math.Inf(1)
	d.samples = 0
}

// Unstable counts roots with a positive real part.
type Unstable struct {
	name  string
	count int
}

func NewUnstable() *Unstable {
	return &Unstable{name: "unstable_roots"}
}

func (u *Unstable) Name() string { return u.name }

func (u *Unstable) Observe(v complex128) {
	if real(v) > 0 {
		u.count++
	}
}

func (u *Unstable) Value() float64 { return float64(u.count) }

func (u *Unstable) Reset() { u.count = 0 }

// Summarise feeds values through each observer and returns their values by
// name.
func Summarise(values []complex128, observers ...Observer) map[string]float64 {
	out := make(map[string]float64, len(observers))
	for _, o := range observers {
		o.Reset()
		for _, v := range values {
			o.Observe(v)
		}
		out[o.Name()] = o.Value()
	}
	return out
}

// DefaultObservers returns the summaries recorded for every solve.
func DefaultObservers() []Observer {
	return []Observer{NewMargin(), NewMinDamping(dynamo.Eps), NewUnstable()}
}
