package subaru

import (
	"errors"
	"fmt"
	"math"

	"eyesight-ctrl/utils"
)

// Logger is the subset of utils.Logger the controller writes to.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Trace(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Result is the output of one control cycle.
type Result struct {
	// Steer is the applied steering as a fraction of SteerMax, fed back to
	// the planner in place of its request.
	Steer            float64
	SteerRateLimited bool
	Frames           []BusFrame
}

// Controller turns actuator requests into EyeSight bus frames. It is not
// safe for concurrent use; Update must be called once per control cycle.
type Controller struct {
	params   Params
	enc      Encoder
	dispatch dispatcher
	log      Logger
	state    ControllerState
}

// NewController validates p and selects the frame generation. A nil log
// discards diagnostics.
func NewController(p Params, enc Encoder, log Logger) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: nil encoder", ErrConfiguration)
	}
	d, err := newDispatcher(p, enc)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Controller{
		params:   p,
		enc:      enc,
		dispatch: d,
		log:      log,
		state:    newControllerState(p.Generation),
	}, nil
}

// Params returns the calibration in use.
func (c *Controller) Params() Params {
	return c.params
}

// State returns a snapshot of the cross-cycle state.
func (c *Controller) State() ControllerState {
	return c.state.clone()
}

// Update runs one control cycle. Frames that fail to build or encode are left
// out of the batch and reported together in the returned error; the other
// frames of the cycle are still returned.
func (c *Controller) Update(cs *VehicleState, act Actuators, cc ControlContext) (Result, error) {
	var (
		frames []OutboundFrame
		errs   []error
	)

	if cc.Frame%uint64(c.params.SteerStep) == 0 {
		f, err := c.updateSteering(cs, act, cc)
		if err != nil {
			errs = append(errs, err)
		} else {
			frames = append(frames, f)
		}
	}

	lon := c.updateLongitudinal(cs, act.Accel, cc.Enabled)
	if lon.BrakeCmd || lon.CruiseThrottle > 0 {
		c.log.Trace("frame=%d brake_cmd=%v brake=%.0f throttle=%.0f rpm=%.0f",
			cc.Frame, lon.BrakeCmd, lon.BrakeValue, lon.CruiseThrottle, lon.CruiseRPM)
	}

	echoes, echoErrs := c.dispatch.echoes(cs, cc, lon, &c.state)
	frames = append(frames, echoes...)
	for _, err := range echoErrs {
		if errors.Is(err, ErrMissingSourceFrame) {
			c.log.Trace("frame=%d skip: %v", cc.Frame, err)
			continue
		}
		errs = append(errs, err)
	}

	res := Result{
		Steer:            float64(c.state.ApplySteerLast) / float64(c.params.SteerMax),
		SteerRateLimited: c.state.SteerRateLimited,
		Frames:           make([]BusFrame, 0, len(frames)),
	}
	for _, f := range frames {
		bf, err := c.encode(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Frames = append(res.Frames, bf)
	}

	return res, errors.Join(errs...)
}

// updateSteering computes and stores the steering command of a steer cycle.
func (c *Controller) updateSteering(cs *VehicleState, act Actuators, cc ControlContext) (OutboundFrame, error) {
	requested := int(math.RoundToEven(act.Steer * float64(c.params.SteerMax)))
	apply := ApplySteerTorqueLimits(requested, c.state.ApplySteerLast, cs.SteeringTorque, c.params)
	c.state.SteerRateLimited = requested != apply
	if c.state.SteerRateLimited {
		c.log.Trace("frame=%d steer limited %d -> %d (driver torque %.0f)", cc.Frame, requested, apply, cs.SteeringTorque)
	}

	if !cc.Enabled {
		apply = 0
	}
	c.state.ApplySteerLast = apply

	return c.dispatch.steering(apply, cc.Frame)
}

func (c *Controller) encode(f OutboundFrame) (BusFrame, error) {
	payload, id, err := c.enc.EncodeFrame(f.Name, f.values)
	if err != nil {
		return BusFrame{}, &FrameError{Message: f.Name, Err: err}
	}
	return BusFrame{OutboundFrame: f, Frame: utils.NewCANFrame(id, payload)}, nil
}
