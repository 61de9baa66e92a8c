package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMargin(t *testing.T) {
	m := NewMargin()
	if m.Value() != 0 {
		t.Errorf("expected 0 before observations, got %f", m.Value())
	}

	m.Observe(complex(-2, 1))
	m.Observe(complex(-0.5, 3))
	if m.Value() != -0.5 {
		t.Errorf("expected margin -0.5, got %f", m.Value())
	}

	m.Reset()
	m.Observe(complex(-3, 0))
	if m.Value() != -3 {
		t.Errorf("expected margin -3 after reset, got %f", m.Value())
	}
}

func TestMinDampingSkipsRealRoots(t *testing.T) {
	d := NewMinDamping(1e-9)
	d.Observe(complex(-10, 0))
	if d.Value() != 1.0 {
		t.Errorf("expected 1.0 with no oscillatory roots, got %f", d.Value())
	}

	d.Observe(complex(-3, 4))
	d.Observe(complex(-1, 10))
	got := d.Value()
	want := 1 / 10.04987562112089
	if diff := got - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestSummarise(t *testing.T) {
	values := []complex128{complex(-1, 2), complex(0.2, 5), complex(0.1, -5)}
	s := Summarise(values, DefaultObservers()...)

	if s["unstable_roots"] != 2 {
		t.Errorf("expected 2 unstable roots, got %f", s["unstable_roots"])
	}
	if s["stability_margin"] != 0.2 {
		t.Errorf("expected margin 0.2, got %f", s["stability_margin"])
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveSolve("modal", 20*time.Millisecond, 12, nil)
	r.ObserveSolve("modal", time.Millisecond, 0, errors.New("singular"))

	if got := testutil.ToFloat64(r.solves.WithLabelValues("modal", "success")); got != 1 {
		t.Errorf("expected 1 success, got %f", got)
	}
	if got := testutil.ToFloat64(r.solves.WithLabelValues("modal", "error")); got != 1 {
		t.Errorf("expected 1 error, got %f", got)
	}
	if got := testutil.ToFloat64(r.modes.WithLabelValues("modal")); got != 12 {
		t.Errorf("expected 12 modes, got %f", got)
	}

	r.ObserveSpectrum("stability", []complex128{complex(0.5, 1)})
	if got := testutil.ToFloat64(r.summary.WithLabelValues("stability", "unstable_roots")); got != 1 {
		t.Errorf("expected 1 unstable root, got %f", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSolve("stability", time.Second, 40, nil)

	path := filepath.Join(t.TempDir(), "aeromodal.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), `aeromodal_solves_total{solver="stability",status="success"} 1`) {
		t.Errorf("missing counter in textfile:\n%s", data)
	}
}
