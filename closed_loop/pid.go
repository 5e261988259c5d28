package main

import "fmt"

// PIDConfig holds speed controller parameters
type PIDConfig struct {
	TargetSpeedMPS float64 `json:"target_speed_mps"`
	Kp             float64 `json:"kp"`
	Ki             float64 `json:"ki"`
	Kd             float64 `json:"kd"`
	MaxAccelMPS2   float64 `json:"max_accel_mps2"`
	MinAccelMPS2   float64 `json:"min_accel_mps2"`
	IntegralLimit  float64 `json:"integral_limit"`
}

func (c PIDConfig) validate() error {
	if c.TargetSpeedMPS < 0 {
		return fmt.Errorf("invalid target_speed_mps: %f", c.TargetSpeedMPS)
	}
	if c.MinAccelMPS2 >= c.MaxAccelMPS2 {
		return fmt.Errorf("min_accel_mps2 %.2f not below max_accel_mps2 %.2f", c.MinAccelMPS2, c.MaxAccelMPS2)
	}
	if c.IntegralLimit < 0 {
		return fmt.Errorf("negative integral_limit: %f", c.IntegralLimit)
	}
	return nil
}

// PIDController implements a discrete PID controller for speed tracking
type PIDController struct {
	cfg PIDConfig

	// State
	integral    float64
	prevError   float64
	initialized bool
}

// NewPIDController creates a new PID controller with given configuration
func NewPIDController(cfg PIDConfig) *PIDController {
	return &PIDController{cfg: cfg}
}

// Reset clears the PID state
func (pid *PIDController) Reset() {
	pid.integral = 0.0
	pid.prevError = 0.0
	pid.initialized = false
}

// Update computes the PID control output given current speed and time delta
//
// Returns: acceleration request (m/s^2)
func (pid *PIDController) Update(currentSpeed float64, dt float64) float64 {
	error := pid.cfg.TargetSpeedMPS - currentSpeed

	// No derivative on the first sample
	if !pid.initialized {
		pid.prevError = error
		pid.initialized = true
	}

	// Proportional term
	p := pid.cfg.Kp * error

	// Integral term with anti-windup
	pid.integral += error * dt
	if pid.integral > pid.cfg.IntegralLimit {
		pid.integral = pid.cfg.IntegralLimit
	} else if pid.integral < -pid.cfg.IntegralLimit {
		pid.integral = -pid.cfg.IntegralLimit
	}
	i := pid.cfg.Ki * pid.integral

	// Derivative term (using error derivative)
	var d float64
	if dt > 0 {
		d = pid.cfg.Kd * (error - pid.prevError) / dt
	}

	accel := p + i + d

	// Apply saturation limits, back-calculating the integral
	if accel > pid.cfg.MaxAccelMPS2 {
		accel = pid.cfg.MaxAccelMPS2
		if pid.cfg.Ki != 0 {
			pid.integral = (accel - p - d) / pid.cfg.Ki
		}
	} else if accel < pid.cfg.MinAccelMPS2 {
		accel = pid.cfg.MinAccelMPS2
		if pid.cfg.Ki != 0 {
			pid.integral = (accel - p - d) / pid.cfg.Ki
		}
	}

	pid.prevError = error

	return accel
}

// GetDiagnostics returns current PID state for logging/debugging
func (pid *PIDController) GetDiagnostics() PIDDiagnostics {
	return PIDDiagnostics{
		Error:    pid.prevError,
		Integral: pid.integral,
		P:        pid.cfg.Kp * pid.prevError,
		I:        pid.cfg.Ki * pid.integral,
	}
}

// PIDDiagnostics contains PID internal state for monitoring
type PIDDiagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
}

// SetTargetSpeed retargets the controller. The integral is kept.
func (pid *PIDController) SetTargetSpeed(target float64) {
	pid.cfg.TargetSpeedMPS = target
}

func (pid *PIDController) TargetSpeed() float64 {
	return pid.cfg.TargetSpeedMPS
}
