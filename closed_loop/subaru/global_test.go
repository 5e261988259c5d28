package subaru

import "testing"

func TestESLKASStateAlerts(t *testing.T) {
	tests := []struct {
		name      string
		stock     float64
		cc        ControlContext
		wantAlert float64
		wantHands float64
	}{
		{"no alert", 0, ControlContext{}, 0, 0},
		{"left departure", 0, ControlContext{VisualAlert: AlertLDW, LeftLaneDepart: true}, 12, 0},
		{"right departure", 0, ControlContext{VisualAlert: AlertLDW, RightLaneDepart: true}, 11, 0},
		{"left wins over right", 0, ControlContext{VisualAlert: AlertLDW, LeftLaneDepart: true, RightLaneDepart: true}, 12, 0},
		{"stock FCW kept", 6, ControlContext{VisualAlert: AlertLDW, LeftLaneDepart: true}, 6, 0},
		{"departure without LDW alert", 0, ControlContext{LeftLaneDepart: true}, 0, 0},
		{"steer required", 0, ControlContext{VisualAlert: AlertSteerRequired}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := esLKASState(map[string]float64{"LKAS_Alert": tt.stock}, tt.cc)
			if got, _ := f.Value("LKAS_Alert"); got != tt.wantAlert {
				t.Errorf("LKAS_Alert = %v, want %v", got, tt.wantAlert)
			}
			if got, _ := f.Value("Keep_Hands_On_Wheel"); got != tt.wantHands {
				t.Errorf("Keep_Hands_On_Wheel = %v, want %v", got, tt.wantHands)
			}
		})
	}
}

func TestESLKASStateLines(t *testing.T) {
	f := esLKASState(map[string]float64{"LKAS_Left_Line_Visible": 1, "LKAS_Right_Line_Visible": 1},
		ControlContext{LeftLine: true})
	if v, _ := f.Value("LKAS_Left_Line_Visible"); v != 1 {
		t.Errorf("left line = %v", v)
	}
	if v, _ := f.Value("LKAS_Right_Line_Visible"); v != 0 {
		t.Errorf("right line = %v, want overwritten to 0", v)
	}
}

func TestESBrakeLights(t *testing.T) {
	tests := []struct {
		pressure   float64
		wantLights float64
	}{
		{0, 0},
		{69, 0},
		{70, 1},
		{250, 1},
	}
	for _, tt := range tests {
		f := esBrake(nil, true, true, tt.pressure, 70)
		if v, _ := f.Value("Cruise_Brake_Lights"); v != tt.wantLights {
			t.Errorf("pressure %v: lights %v, want %v", tt.pressure, v, tt.wantLights)
		}
		if v, _ := f.Value("Brake_Pressure"); v != tt.pressure {
			t.Errorf("pressure %v: got %v", tt.pressure, v)
		}
	}

	f := esBrake(map[string]float64{"Brake_Pressure": 12}, false, false, 300, 70)
	if v, _ := f.Value("Brake_Pressure"); v != 12 {
		t.Errorf("stock pressure replaced without brake command: %v", v)
	}
	if _, ok := f.Value("Cruise_Activated"); ok {
		t.Error("Cruise_Activated set while disengaged")
	}
}

func TestESDistanceOverrides(t *testing.T) {
	base := map[string]float64{"Cruise_Throttle": 1500, "Cruise_Cancel": 0}

	f := esDistance(base, false, false, false, 2000)
	if v, _ := f.Value("Cruise_Throttle"); v != 1500 {
		t.Errorf("disengaged throttle = %v, want stock 1500", v)
	}

	f = esDistance(base, true, true, false, 2000)
	if v, _ := f.Value("Cruise_Throttle"); v != 2000 {
		t.Errorf("engaged throttle = %v", v)
	}
	if v, _ := f.Value("Cruise_Cancel"); v != 1 {
		t.Errorf("cancel = %v", v)
	}

	f = esDistance(base, true, false, true, 2000)
	if v, _ := f.Value("Cruise_Throttle"); v != brakingCruiseThrottle {
		t.Errorf("braking throttle = %v", v)
	}
	if v, _ := f.Value("Cruise_Brake_Active"); v != 1 {
		t.Errorf("brake active = %v", v)
	}

	if base["Cruise_Throttle"] != 1500 {
		t.Error("builder modified the stock baseline")
	}
}

func TestSuppressionEchoes(t *testing.T) {
	cc := cruiseControl(map[string]float64{"Cruise_Activated": 1, "Cruise_On": 1})
	if v, _ := cc.Value("Cruise_Activated"); v != 0 {
		t.Errorf("CruiseControl activated = %v", v)
	}
	if v, _ := cc.Value("Cruise_On"); v != 1 {
		t.Errorf("CruiseControl Cruise_On = %v, want passthrough", v)
	}
	if cc.Bus != BusCam {
		t.Errorf("CruiseControl bus = %d", cc.Bus)
	}

	bs := brakeStatus(map[string]float64{"ES_Brake": 1}, false)
	if v, _ := bs.Value("ES_Brake"); v != 0 {
		t.Errorf("Brake_Status ES_Brake = %v, want suppressed", v)
	}
	bs = brakeStatus(map[string]float64{"ES_Brake": 1}, true)
	if v, _ := bs.Value("ES_Brake"); v != 1 {
		t.Errorf("Brake_Status ES_Brake = %v, want stock value kept", v)
	}
}

func TestOutboundFrameIsImmutable(t *testing.T) {
	f := esDashStatus(map[string]float64{"Cruise_State": 2}, true, true)
	vals := f.Values()
	vals["Cruise_State"] = 3

	if v, _ := f.Value("Cruise_State"); v != 0 {
		t.Errorf("Cruise_State = %v after editing a copy", v)
	}
	if v, _ := f.Value("Car_Follow"); v != 1 {
		t.Errorf("Car_Follow = %v", v)
	}
	want := []string{"Car_Follow", "Cruise_Activated", "Cruise_Disengaged", "Cruise_State"}
	got := f.Signals()
	if len(got) != len(want) {
		t.Fatalf("signals %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("signals %v, want %v", got, want)
		}
	}
}

func TestGlobalChecksum(t *testing.T) {
	tests := []struct {
		id      uint32
		payload []byte
		want    byte
	}{
		{0x122, []byte{0, 0, 0, 0, 0, 0, 0, 0}, 0x23},
		{0x221, []byte{0xAA, 1, 2, 3, 4, 5, 6, 7}, 0x3F},
		{0x13C, []byte{0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, 0x36},
	}
	for _, tt := range tests {
		if got := GlobalChecksum(tt.id, tt.payload); got != tt.want {
			t.Errorf("GlobalChecksum(0x%X, % X) = 0x%02X, want 0x%02X", tt.id, tt.payload, got, tt.want)
		}
	}
}

func TestGlobalFramesCarryChecksum(t *testing.T) {
	c := newTestController(t, DefaultParams(Global))

	for frame := 0; frame < 6; frame++ {
		cs := stockState(Global, frame)
		for _, src := range cs.Frames {
			src.Values["Checksum"] = 0x5A // stale stock checksum
		}
		cs.Frames[MsgESDistance].Values["Cruise_Throttle"] = float64(1000 + 100*frame)

		res, err := c.Update(cs, Actuators{Steer: 0.4, Accel: 0.5}, ControlContext{Enabled: true, Frame: uint64(frame)})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Frames) == 0 {
			t.Fatalf("frame %d: nothing emitted", frame)
		}
		for _, f := range res.Frames {
			data := f.Frame.Data[:f.Frame.Length]
			if want := GlobalChecksum(f.Frame.ID, data); data[0] != want {
				t.Errorf("frame %d %s: checksum 0x%02X, want 0x%02X, payload % X", frame, f.Name, data[0], want, data)
			}
		}

		if _, ok := findFrame(res, SteeringMessage); !ok && frame%DefaultParams(Global).SteerStep == 0 {
			t.Errorf("frame %d: no steering", frame)
		}
		if got := len(res.Frames); got < len(globalEchoes) {
			t.Errorf("frame %d: %d frames, want every echo", frame, got)
		}
	}
}
