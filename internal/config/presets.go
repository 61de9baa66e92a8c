package config

var Presets = map[string]map[string]*Config{
	"modal": {
		"undamped": {
			Solvers: []string{"modal"},
			Modal:   ModalConfig{UseUndampedModes: true, NumModes: 20, KeepLinearMatrices: true},
		},
		"damped": {
			Solvers: []string{"modal"},
			Modal:   ModalConfig{UseUndampedModes: false, NumModes: 20, KeepLinearMatrices: true},
		},
		"free_flying": {
			Solvers: []string{"modal"},
			Modal:   ModalConfig{UseUndampedModes: true, NumModes: 30, RigidBodyModes: true},
		},
		"discrete": {
			Solvers: []string{"modal"},
			Modal: ModalConfig{UseUndampedModes: false, NumModes: 10,
				ContinuousEigenvalues: true, Dt: 0.001},
		},
	},
	"stability": {
		"flutter": {
			Solvers:   []string{"modal", "stability"},
			Modal:     ModalConfig{UseUndampedModes: true, NumModes: 20},
			Stability: StabilityConfig{SysID: "aeroelastic", FrequencyCutoff: 100, NumEvals: 100},
		},
		"full_spectrum": {
			Solvers:   []string{"stability"},
			Modal:     ModalConfig{NumModes: 20},
			Stability: StabilityConfig{SysID: "aeroelastic", NumEvals: 1000},
		},
	},
}

// GetPreset returns a copy of a preset with default scaling, logging and
// output settings filled in.
func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	p, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Solvers = append([]string(nil), p.Solvers...)
	cfg.Modal = p.Modal
	if p.Stability.SysID != "" {
		cfg.Stability = p.Stability
	}
	return cfg
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	return names
}
