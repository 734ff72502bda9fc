// Package board models the H-bridge gate array and PWM carrier: the
// commanded/actual gate state with dead-time lockout, the PWM
// sawtooth-carrier position and duty quantization, and diode-freewheel
// pole-voltage resolution when a gate is OFF.
package board

import (
	"errors"
	"fmt"
	"math"
)

// GateLevel is the actual state a half-bridge leg resolves to.
type GateLevel int

const (
	Low GateLevel = iota
	High
	Off
)

// Resolution is the PWM duty quantization step. Zero disables
// quantization; these enumerate the selectable steps.
type Resolution float64

const (
	ResolutionNone  Resolution = 0
	Resolution1Bit  Resolution = 1.0 / 2
	Resolution8Bit  Resolution = 1.0 / 256
	Resolution16Bit Resolution = 1.0 / 65536
)

// Params are the board-level constants: bus voltage, diode drop,
// dead-time, and PWM resolution. Validated at the edit boundary.
type Params struct {
	BusVoltage         float64 // > 0
	DiodeActiveVoltage float64 // forward drop when a body diode conducts
	DeadTime           float64 // seconds, dead-time lockout after a transition
	PWMResolution      Resolution
	PWMFrequency       float64 // Hz, triangle/sawtooth carrier frequency

	// DiodeActiveThreshold is the minimum |i_phase| before a body diode
	// is considered to be conducting; below it the OFF-state pole
	// voltage is indeterminate and resolved arbitrarily. Zero means
	// "use the default", 1e-6 A.
	DiodeActiveThreshold float64
}

const defaultDiodeActiveThreshold = 1e-6

// threshold returns DiodeActiveThreshold, falling back to the default
// when unset.
func (p *Params) threshold() float64 {
	if p.DiodeActiveThreshold <= 0 {
		return defaultDiodeActiveThreshold
	}
	return p.DiodeActiveThreshold
}

// DefaultParams returns a reasonable 24V board with no quantization.
func DefaultParams() Params {
	return Params{
		BusVoltage:           24,
		DiodeActiveVoltage:   0.7,
		DeadTime:             0,
		PWMResolution:        ResolutionNone,
		PWMFrequency:         20000,
		DiodeActiveThreshold: defaultDiodeActiveThreshold,
	}
}

var (
	ErrInvalidBusVoltage = errors.New("board: bus_voltage must be strictly positive")
	ErrInvalidDeadTime   = errors.New("board: dead_time must be non-negative")
)

// Validate rejects a physically invalid board parameter set.
func (p *Params) Validate() error {
	if p.BusVoltage <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidBusVoltage, p.BusVoltage)
	}
	if p.DeadTime < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidDeadTime, p.DeadTime)
	}
	switch p.PWMResolution {
	case ResolutionNone, Resolution1Bit, Resolution8Bit, Resolution16Bit:
	default:
		// Replace a resolution outside the enumerated set with
		// ResolutionNone (no quantization) rather than reject it.
		p.PWMResolution = ResolutionNone
	}
	return nil
}

// GateState tracks, per phase, the operator/controller-commanded level
// and the actual resolved level, with the dead-time countdown that
// gates the transition between them.
type GateState struct {
	Commanded         [3]bool // true = HIGH requested
	Actual            [3]GateLevel
	DeadTimeRemaining [3]float64

	// ForceOff marks a phase as undriven this tick (six-step's
	// un-energized leg between commutation steps): AdvanceGates routes
	// it straight to Off, bypassing the commanded/dead-time machinery,
	// and the freewheel diode path in PoleVoltage carries it.
	ForceOff [3]bool

	prevCommanded [3]bool
	initialized   bool
}

// PWMState is the triangle/sawtooth carrier and the per-phase duty.
type PWMState struct {
	Level  float64    // [0,1) carrier position
	Duties [3]float64 // [0,1] per-phase duty
}

// Quantize rounds duty to the nearest multiple of resolution. A zero
// resolution disables quantization.
func Quantize(duty float64, resolution Resolution) float64 {
	if resolution <= 0 {
		return duty
	}
	r := float64(resolution)
	q := math.Round(duty/r) * r
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	return q
}

// AdvanceGates runs one tick of length dt over the gate/PWM model:
// detect commanded transitions, force OFF and reload the dead-time
// timer on transition, and count down otherwise. The PWM carrier is
// advanced separately by PWMState.AdvancePWM.
func (g *GateState) AdvanceGates(params *Params, dt float64) {
	if !g.initialized {
		g.prevCommanded = g.Commanded
		g.initialized = true
	}
	for n := 0; n < 3; n++ {
		if g.ForceOff[n] {
			g.Actual[n] = Off
			g.DeadTimeRemaining[n] = 0
			continue
		}
		if g.Commanded[n] != g.prevCommanded[n] {
			g.Actual[n] = Off
			g.DeadTimeRemaining[n] = params.DeadTime
		} else if g.DeadTimeRemaining[n] > 0 {
			g.DeadTimeRemaining[n] -= dt
			// Tolerate float residue from repeated subtraction, so a dead
			// time of k*dt keeps the leg OFF for exactly k ticks.
			if g.DeadTimeRemaining[n] <= 1e-9*dt {
				g.DeadTimeRemaining[n] = 0
				g.Actual[n] = commandedLevel(g.Commanded[n])
			}
		} else {
			g.Actual[n] = commandedLevel(g.Commanded[n])
		}
	}
	g.prevCommanded = g.Commanded
}

func commandedLevel(commanded bool) GateLevel {
	if commanded {
		return High
	}
	return Low
}

// AdvancePWM steps the carrier position by dt*frequency, wrapping at 1,
// and derives Commanded from the duty/carrier comparison:
// commanded = duty_q > level.
func (pwm *PWMState) AdvancePWM(params *Params, dt float64, gates *GateState) {
	pwm.Level += dt * params.PWMFrequency
	pwm.Level = math.Mod(pwm.Level, 1)
	if pwm.Level < 0 {
		pwm.Level += 1
	}
	for n := 0; n < 3; n++ {
		dutyQ := Quantize(pwm.Duties[n], params.PWMResolution)
		gates.Commanded[n] = dutyQ > pwm.Level
	}
}

// ErrUnreachableGateState marks a defensive default arm in an
// exhaustive switch over GateLevel: such states should be unreachable.
var ErrUnreachableGateState = errors.New("board: unreachable gate state")

// PoleVoltage resolves v_pole[n] from (bus_voltage, actual gate,
// phase current). sentinel reports whether |i| was below the
// diode-active threshold and the OFF-state voltage was chosen
// arbitrarily (a documented, non-fatal degeneracy).
func PoleVoltage(params *Params, actual GateLevel, iPhase float64) (vPole float64, sentinel bool, err error) {
	switch actual {
	case High:
		return params.BusVoltage, false, nil
	case Low:
		return 0, false, nil
	case Off:
		threshold := params.threshold()
		switch {
		case iPhase > threshold:
			// Current flows out of the pole: low-side diode conducts.
			return -params.DiodeActiveVoltage, false, nil
		case iPhase < -threshold:
			// High-side diode conducts.
			return params.BusVoltage + params.DiodeActiveVoltage, false, nil
		default:
			// |i| < threshold: indeterminate: pick 0 deterministically and flag it.
			return 0, true, nil
		}
	default:
		return 0, false, fmt.Errorf("%w: %d", ErrUnreachableGateState, actual)
	}
}
