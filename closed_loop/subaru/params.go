package subaru

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Generation selects the bus schema of the vehicle.
type Generation string

const (
	Global    Generation = "global"
	PreGlobal Generation = "preglobal"
)

// Params holds the per-vehicle calibration of the controller.
type Params struct {
	Model        string     `yaml:"model"`
	Generation   Generation `yaml:"generation"`
	Longitudinal bool       `yaml:"longitudinal"` // throttle and brake are commanded by us

	// Lateral
	SteerStep             int `yaml:"steer_step"`
	SteerMax              int `yaml:"steer_max"`
	SteerDeltaUp          int `yaml:"steer_delta_up"`
	SteerDeltaDown        int `yaml:"steer_delta_down"`
	SteerDriverAllowance  int `yaml:"steer_driver_allowance"`
	SteerDriverMultiplier int `yaml:"steer_driver_multiplier"`
	SteerDriverFactor     int `yaml:"steer_driver_factor"`

	// Longitudinal surrogates
	Throttle SurrogateParams `yaml:"throttle"`
	RPM      SurrogateParams `yaml:"rpm"`

	BrakeScale          float64 `yaml:"brake_scale"`
	BrakeMin            float64 `yaml:"brake_min"`
	BrakeMax            float64 `yaml:"brake_max"`
	BrakeLightThreshold float64 `yaml:"brake_light_threshold"`
}

// SurrogateParams maps gas in [0, 1] onto a cruise throttle or RPM request.
type SurrogateParams struct {
	Base      float64 `yaml:"base"`
	Scale     float64 `yaml:"scale"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	DeltaUp   float64 `yaml:"delta_up"`
	DeltaDown float64 `yaml:"delta_down"`
}

// DefaultParams returns the stock calibration of a generation.
func DefaultParams(gen Generation) Params {
	p := Params{
		Model:                 string(gen),
		Generation:            gen,
		Longitudinal:          gen == Global,
		SteerStep:             2,
		SteerMax:              2047,
		SteerDeltaUp:          50,
		SteerDeltaDown:        70,
		SteerDriverAllowance:  60,
		SteerDriverMultiplier: 10,
		SteerDriverFactor:     1,
		Throttle: SurrogateParams{
			Base: 1818, Scale: 1000, Min: 808, Max: 3400,
			DeltaUp: 30, DeltaDown: 60,
		},
		RPM: SurrogateParams{
			Base: 600, Scale: 2600, Min: 600, Max: 3200,
			DeltaUp: 50, DeltaDown: 50,
		},
		BrakeScale:          1000,
		BrakeMin:            0,
		BrakeMax:            400,
		BrakeLightThreshold: 70,
	}
	if gen == PreGlobal {
		p.SteerDeltaUp = 40
		p.SteerDeltaDown = 40
	}
	return p
}

// Validate reports a configuration the controller cannot run with.
func (p Params) Validate() error {
	switch p.Generation {
	case Global, PreGlobal:
	default:
		return fmt.Errorf("%w: unsupported generation %q", ErrConfiguration, p.Generation)
	}
	if p.SteerStep <= 0 {
		return fmt.Errorf("%w: steer_step must be positive, got %d", ErrConfiguration, p.SteerStep)
	}
	if p.SteerMax <= 0 {
		return fmt.Errorf("%w: steer_max must be positive, got %d", ErrConfiguration, p.SteerMax)
	}
	if p.SteerDeltaUp <= 0 || p.SteerDeltaDown <= 0 {
		return fmt.Errorf("%w: steer deltas must be positive", ErrConfiguration)
	}
	if p.Generation == PreGlobal && p.Longitudinal {
		return fmt.Errorf("%w: longitudinal control is not available on preglobal vehicles", ErrConfiguration)
	}
	if !p.Longitudinal {
		return nil
	}
	for name, s := range map[string]SurrogateParams{"throttle": p.Throttle, "rpm": p.RPM} {
		if s.Min > s.Max {
			return fmt.Errorf("%w: %s min %g exceeds max %g", ErrConfiguration, name, s.Min, s.Max)
		}
		if s.DeltaUp <= 0 || s.DeltaDown <= 0 {
			return fmt.Errorf("%w: %s deltas must be positive", ErrConfiguration, name)
		}
	}
	if p.BrakeMin > p.BrakeMax {
		return fmt.Errorf("%w: brake_min %g exceeds brake_max %g", ErrConfiguration, p.BrakeMin, p.BrakeMax)
	}
	return nil
}

type vehicleFile struct {
	Vehicles []yamlVehicle `yaml:"vehicles"`
}

// yamlVehicle uses pointers so that absent keys keep the generation default.
type yamlVehicle struct {
	Model        string     `yaml:"model"`
	Generation   Generation `yaml:"generation"`
	Longitudinal *bool      `yaml:"longitudinal"`

	SteerStep             *int `yaml:"steer_step"`
	SteerMax              *int `yaml:"steer_max"`
	SteerDeltaUp          *int `yaml:"steer_delta_up"`
	SteerDeltaDown        *int `yaml:"steer_delta_down"`
	SteerDriverAllowance  *int `yaml:"steer_driver_allowance"`
	SteerDriverMultiplier *int `yaml:"steer_driver_multiplier"`
	SteerDriverFactor     *int `yaml:"steer_driver_factor"`

	Throttle *SurrogateParams `yaml:"throttle"`
	RPM      *SurrogateParams `yaml:"rpm"`

	BrakeScale          *float64 `yaml:"brake_scale"`
	BrakeMin            *float64 `yaml:"brake_min"`
	BrakeMax            *float64 `yaml:"brake_max"`
	BrakeLightThreshold *float64 `yaml:"brake_light_threshold"`
}

// LoadParams reads the named vehicle from a YAML vehicle file, filling unset
// keys from DefaultParams of its generation.
func LoadParams(path, model string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read vehicle file: %w", err)
	}
	return ParseParams(data, model)
}

// ParseParams is LoadParams on an in-memory document.
func ParseParams(data []byte, model string) (Params, error) {
	var vf vehicleFile
	if err := yaml.UnmarshalStrict(data, &vf); err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	for _, v := range vf.Vehicles {
		if v.Model != model {
			continue
		}
		p := v.merge()
		if err := p.Validate(); err != nil {
			return Params{}, fmt.Errorf("vehicle %s: %w", model, err)
		}
		return p, nil
	}
	return Params{}, fmt.Errorf("%w: no vehicle %q in parameter file", ErrConfiguration, model)
}

func (v yamlVehicle) merge() Params {
	p := DefaultParams(v.Generation)
	p.Model = v.Model
	setIf(&p.Longitudinal, v.Longitudinal)
	setIf(&p.SteerStep, v.SteerStep)
	setIf(&p.SteerMax, v.SteerMax)
	setIf(&p.SteerDeltaUp, v.SteerDeltaUp)
	setIf(&p.SteerDeltaDown, v.SteerDeltaDown)
	setIf(&p.SteerDriverAllowance, v.SteerDriverAllowance)
	setIf(&p.SteerDriverMultiplier, v.SteerDriverMultiplier)
	setIf(&p.SteerDriverFactor, v.SteerDriverFactor)
	setIf(&p.Throttle, v.Throttle)
	setIf(&p.RPM, v.RPM)
	setIf(&p.BrakeScale, v.BrakeScale)
	setIf(&p.BrakeMin, v.BrakeMin)
	setIf(&p.BrakeMax, v.BrakeMax)
	setIf(&p.BrakeLightThreshold, v.BrakeLightThreshold)
	return p
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
