// Package sim owns SimState and the scheduler host loop: it advances
// simulation time, dispatches the controller tick when its period has
// elapsed, advances the gate/PWM and physics models, and feeds the
// observer ring buffer -- a single-threaded cooperative loop with no
// locking, driven entirely by the host's own frame/tick calls.
package sim

import (
	"errors"
	"fmt"
	"log"

	"github.com/wtliu/motorsim/board"
	"github.com/wtliu/motorsim/control"
	"github.com/wtliu/motorsim/motor"
)

// State aggregates everything the scheduler owns across a tick.
// No cyclic ownership: it is the sole root, components receive
// references into it and either read or write their own specific
// fields.
type State struct {
	Time float64

	Motor motor.Params
	Kin   motor.Kinematic
	Elec  motor.Electrical

	Board board.Params
	Gates board.GateState
	PWM   board.PWMState

	Foc  control.FocState
	Mode control.CommutationMode

	LoadTorque          float64
	DesiredTorque       float64
	SixStepPhaseAdvance float64
	ManualCommanded     [3]bool

	StepMultiplier int
	Paused         bool
}

// NewState constructs a quiescent SimState with sinusoidal bEMF, zero
// cogging, and a zero-load, zero-current motor at rest.
func NewState() *State {
	return &State{
		Motor:          motor.DefaultParams(),
		Board:          board.DefaultParams(),
		StepMultiplier: 1,
		Mode:           control.Manual,
	}
}

var (
	// ErrInvalidStepMultiplier marks a rejected edit to StepMultiplier,
	// which is bounded to [1, 5000] ticks per host frame.
	ErrInvalidStepMultiplier = errors.New("sim: step_multiplier must be in [1,5000]")
)

// SetStepMultiplier validates and applies a new step multiplier at the
// edit boundary: the tick loop never observes an invalid value.
func (s *State) SetStepMultiplier(n int) error {
	if n < 1 || n > 5000 {
		return fmt.Errorf("%w: got %d", ErrInvalidStepMultiplier, n)
	}
	s.StepMultiplier = n
	return nil
}

// SetMotorParams validates and applies a new motor parameter set. Its
// cogging map is recentered when CoggingRecenter is set; otherwise a
// warning is logged if the map does not integrate to ~0.
func (s *State) SetMotorParams(p motor.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if integral, warned := p.RecenterCoggingMap(); warned {
		log.Printf("sim: cogging map integral %g exceeds 1e-8; it adds or removes net energy each revolution", integral)
	}
	s.Motor = p
	return nil
}

// SetBoardParams validates and applies a new board parameter set.
func (s *State) SetBoardParams(p board.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Board = p
	return nil
}
