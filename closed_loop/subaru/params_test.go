package subaru

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultParamsValidate(t *testing.T) {
	for _, gen := range []Generation{Global, PreGlobal} {
		if err := DefaultParams(gen).Validate(); err != nil {
			t.Errorf("%s defaults invalid: %v", gen, err)
		}
	}
}

func TestLoadParamsFromVehicleFile(t *testing.T) {
	path := filepath.Join("..", "..", "config", "vehicles.yaml")

	p, err := LoadParams(path, "forester_2019")
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if p.Generation != Global || !p.Longitudinal {
		t.Errorf("unexpected generation %s longitudinal %v", p.Generation, p.Longitudinal)
	}
	if p.SteerMax != 1000 {
		t.Errorf("SteerMax = %d, want 1000", p.SteerMax)
	}
	if p.Throttle.Scale != 900 || p.Throttle.DeltaUp != 25 {
		t.Errorf("throttle not overridden: %+v", p.Throttle)
	}
	// untouched keys keep the generation default
	if p.RPM != DefaultParams(Global).RPM {
		t.Errorf("RPM = %+v, want defaults", p.RPM)
	}
	if p.SteerStep != 2 {
		t.Errorf("SteerStep = %d, want default 2", p.SteerStep)
	}

	pg, err := LoadParams(path, "forester_2017")
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if pg.Generation != PreGlobal || pg.Longitudinal {
		t.Errorf("preglobal entry loaded as %s longitudinal=%v", pg.Generation, pg.Longitudinal)
	}
}

func TestParseParamsErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		model string
	}{
		{"unknown model", "vehicles:\n  - model: a\n    generation: global\n", "b"},
		{"unknown generation", "vehicles:\n  - model: a\n    generation: gen4\n", "a"},
		{"missing generation", "vehicles:\n  - model: a\n", "a"},
		{"unknown key", "vehicles:\n  - model: a\n    generation: global\n    steer_maxx: 3\n", "a"},
		{"negative step", "vehicles:\n  - model: a\n    generation: global\n    steer_step: -1\n", "a"},
		{"preglobal longitudinal", "vehicles:\n  - model: a\n    generation: preglobal\n    longitudinal: true\n", "a"},
		{"brake range", "vehicles:\n  - model: a\n    generation: global\n    brake_min: 10\n    brake_max: 5\n", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams([]byte(tt.doc), tt.model)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "none.yaml"), "a"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMessageNames(t *testing.T) {
	if got := PreGlobal.MessageName(MsgESDistance); got != "ES_CruiseThrottle" {
		t.Errorf("preglobal distance message = %s", got)
	}
	if got := Global.MessageName(MsgESDistance); got != "ES_Distance" {
		t.Errorf("global distance message = %s", got)
	}
	if got := PreGlobal.MessageName(MsgBrakeStatus); got != "Brake_Status" {
		t.Errorf("preglobal brake status = %s", got)
	}

	if got := PreGlobal.EchoedMessages(); len(got) != 1 || got[0] != MsgESDistance {
		t.Errorf("preglobal echoes %v", got)
	}
	echoes := Global.EchoedMessages()
	if len(echoes) != 7 || echoes[0] != MsgESDistance || echoes[6] != MsgBrakeStatus {
		t.Errorf("global echoes %v", echoes)
	}
	echoes[0] = MsgBrakeStatus
	if globalEchoes[0] != MsgESDistance {
		t.Error("EchoedMessages exposed the emission order slice")
	}
}
