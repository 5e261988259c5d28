package subaru

import "testing"

func TestApplySteerTorqueLimits(t *testing.T) {
	p := DefaultParams(Global)

	tests := []struct {
		name   string
		apply  int
		last   int
		driver float64
		want   int
	}{
		{"ramp up from zero", 2047, 0, 0, 50},
		{"ramp up positive", 2047, 100, 0, 150},
		{"ramp down positive", 0, 100, 0, 30},
		{"ramp down negative", 0, -100, 0, -30},
		{"ramp up negative", -2047, -100, 0, -150},
		{"small change passes", 120, 100, 0, 120},
		{"driver opposing cuts to zero window", 2047, 2000, -300, 1930},
		{"driver opposing partial", 500, 0, -100, 50},
		{"clamped to steer max", 4000, 2040, 0, 2047},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplySteerTorqueLimits(tt.apply, tt.last, tt.driver, p)
			if got != tt.want {
				t.Errorf("ApplySteerTorqueLimits(%d, %d, %v) = %d, want %d", tt.apply, tt.last, tt.driver, got, tt.want)
			}
		})
	}
}

func TestApplySteerTorqueLimitsStepBound(t *testing.T) {
	p := DefaultParams(Global)
	limit := p.SteerDeltaUp
	if p.SteerDeltaDown > limit {
		limit = p.SteerDeltaDown
	}

	last := 0
	for i, target := range []int{2047, 2047, -2047, -2047, 0, 900, -900, 0} {
		got := ApplySteerTorqueLimits(target, last, 0, p)
		if d := got - last; d > limit || d < -limit {
			t.Fatalf("step %d: moved %d from %d, limit %d", i, d, last, limit)
		}
		if got > p.SteerMax || got < -p.SteerMax {
			t.Fatalf("step %d: %d outside steer max", i, got)
		}
		last = got
	}
}
