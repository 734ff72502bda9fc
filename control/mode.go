package control

import (
	"errors"
	"fmt"

	"github.com/wtliu/motorsim/board"
)

// CommutationMode is a tagged union over the three drive algorithms.
// Dispatch is an exhaustive switch in Tick, not a virtual-dispatch
// interface hierarchy.
type CommutationMode int

const (
	Manual CommutationMode = iota
	SixStep
	FOC
)

func (m CommutationMode) String() string {
	switch m {
	case Manual:
		return "manual"
	case SixStep:
		return "six_step"
	case FOC:
		return "foc"
	default:
		return fmt.Sprintf("CommutationMode(%d)", int(m))
	}
}

// ErrUnreachableMode marks the default arm of the exhaustive switch
// over CommutationMode: such states should be unreachable.
var ErrUnreachableMode = errors.New("control: unreachable commutation mode")

// Inputs bundles everything a single controller tick needs, across all
// three modes, so Tick can remain one function with one exhaustive
// switch rather than a polymorphic hierarchy.
type Inputs struct {
	Mode CommutationMode

	// Manual: the operator-set commanded gate levels.
	ManualCommanded [3]bool

	// SixStep: phase advance in turns, [-0.5, 0.5].
	SixStepPhaseAdvance float64

	// FOC: controller state (mutated in place) and its inputs.
	Foc       *FocState
	FocInputs FOCInputs

	// Shared electrical state, needed by SixStep and FOC.
	ThetaE float64
}

// Tick dispatches to the mode-specific drive algorithm and writes the
// result into gates/pwm: Manual copies operator-set levels directly,
// SixStep selects a sector's (HIGH,LOW,OFF) triple, FOC runs its
// pipeline and writes PWM duties (whose carrier comparison then derives
// gate commands on the next gate/PWM tick).
func Tick(in Inputs, gates *board.GateState, pwm *board.PWMState) error {
	switch in.Mode {
	case Manual:
		gates.ForceOff = [3]bool{}
		gates.Commanded = in.ManualCommanded
		return nil

	case SixStep:
		levels := SixStepLevels(in.ThetaE, in.SixStepPhaseAdvance)
		for n := 0; n < 3; n++ {
			switch levels[n] {
			case SixStepHigh:
				gates.ForceOff[n] = false
				gates.Commanded[n] = true
			case SixStepLow:
				gates.ForceOff[n] = false
				gates.Commanded[n] = false
			case SixStepOff:
				gates.ForceOff[n] = true
			default:
				return fmt.Errorf("%w: six-step level %d", ErrUnreachableMode, int(levels[n]))
			}
		}
		return nil

	case FOC:
		gates.ForceOff = [3]bool{}
		duties := in.Foc.Tick(in.FocInputs)
		pwm.Duties = duties
		return nil

	default:
		return fmt.Errorf("%w: %d", ErrUnreachableMode, int(in.Mode))
	}
}
