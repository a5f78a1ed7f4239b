package config

import "sort"

var Presets = map[string]*Config{
	"circular": {
		Name: "circular", Method: "Leapfrog", Topology: "central", Dt: 1, Steps: DefaultSteps, ValidateState: true,
		Bodies: []BodyConfig{
			{Mass: 1000},
			{Mass: 1, Position: [3]float64{100, 0, 0}, Velocity: [3]float64{0, 3.16, 0}},
		},
	},
	"inner-outer": {
		Name: "inner-outer", Method: "Leapfrog", Topology: "full", Dt: 1, Steps: DefaultSteps, ValidateState: true,
		Bodies: []BodyConfig{
			{Mass: 1000},
			{Mass: 1, Position: [3]float64{100, 0, 0}, Velocity: [3]float64{0, 3.16, 0}},
			{Mass: 5, Position: [3]float64{0, 250, 0}, Velocity: [3]float64{-2, 0, 0}},
		},
	},
	"inclined": {
		Name: "inclined", Method: "Euler", Topology: "full", Dt: 1, Steps: DefaultSteps, ValidateState: true,
		Bodies: []BodyConfig{
			{Mass: 1000},
			{Mass: 1, Position: [3]float64{150, 0, 0}, Velocity: [3]float64{0, 2.2, 1.2}},
			{Mass: 2, Position: [3]float64{-300, 0, 50}, Velocity: [3]float64{0, -1.8, 0}},
			{Mass: 0.5, Position: [3]float64{0, 400, 0}, Velocity: [3]float64{1.5, 0, 0.2}},
		},
	},
	"scatter": {
		Name: "scatter", Method: "Leapfrog", Topology: "central", Dt: 1, Steps: DefaultSteps, ValidateState: true,
		Seed: 1,
		Scatter: &ScatterConfig{
			Count: 8, CentralMass: 1000, PlanetMass: 1, Distance: 100, Speed: 3.16,
		},
	},
}

// GetPreset returns a deep copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Bodies = append([]BodyConfig(nil), p.Bodies...)
	if p.Scatter != nil {
		sc := *p.Scatter
		cfg.Scatter = &sc
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
