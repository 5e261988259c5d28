package subaru

// Message identifies a stock ECU message the controller echoes.
type Message int

const (
	MsgESDistance Message = iota // ES_CruiseThrottle on preglobal
	MsgESStatus
	MsgESDashStatus
	MsgESLKASState
	MsgESBrake
	MsgCruiseControl
	MsgBrakeStatus
)

// String returns the global name of m. Use Generation.MessageName for the
// name on a given bus.
func (m Message) String() string {
	return Global.MessageName(m)
}

// MessageName returns the signal database name of m for the generation.
func (g Generation) MessageName(m Message) string {
	if g == PreGlobal && m == MsgESDistance {
		return "ES_CruiseThrottle"
	}
	switch m {
	case MsgESDistance:
		return "ES_Distance"
	case MsgESStatus:
		return "ES_Status"
	case MsgESDashStatus:
		return "ES_DashStatus"
	case MsgESLKASState:
		return "ES_LKAS_State"
	case MsgESBrake:
		return "ES_Brake"
	case MsgCruiseControl:
		return "CruiseControl"
	case MsgBrakeStatus:
		return "Brake_Status"
	default:
		return "unknown"
	}
}

// SteeringMessage is the name of the steering command frame on both generations.
const SteeringMessage = "ES_LKAS"

// SourceFrame is the latest decoded copy of a stock message.
type SourceFrame struct {
	Values  map[string]float64
	Counter int
}

// VehicleState is the decoded view of the bus for one cycle. The controller
// never modifies it.
type VehicleState struct {
	SteeringTorque  float64 // driver applied
	VEgo            float64 // m/s
	CruiseAvailable bool
	Ready           bool // camera finished its start-up sequence

	ESBrakeActive   bool // stock pre-collision brake request
	ESBrakePressure float64
	CruiseButton    int

	Frames map[Message]SourceFrame
}

// Actuators is the planner request for one cycle.
type Actuators struct {
	Steer float64 // [-1, 1]
	Accel float64 // m/s^2
}

// VisualAlert is the HUD alert requested by the planner.
type VisualAlert int

const (
	AlertNone VisualAlert = iota
	AlertSteerRequired
	AlertLDW
	AlertFCW
)

// ControlContext carries the per-cycle engagement and HUD inputs.
type ControlContext struct {
	Enabled         bool
	Frame           uint64
	CancelRequest   bool
	VisualAlert     VisualAlert
	LeftLine        bool
	RightLine       bool
	LeftLaneDepart  bool
	RightLaneDepart bool
	LeadVisible     bool
}

// ControllerState is everything the controller carries between cycles.
type ControllerState struct {
	ApplySteerLast   int
	SteerRateLimited bool

	Cadence CadenceTracker

	CruiseButtonPrev int

	ThrottleSteady     float64
	RPMSteady          float64
	CruiseThrottleLast float64
	CruiseRPMLast      float64
}

func newControllerState(gen Generation) ControllerState {
	return ControllerState{Cadence: NewCadenceTracker(gen)}
}

// clone returns a copy that shares nothing with s.
func (s ControllerState) clone() ControllerState {
	s.Cadence = s.Cadence.clone()
	return s
}
