package sim

import (
	"github.com/wtliu/motorsim/control"
	"github.com/wtliu/motorsim/physics"
)

// Scheduler owns State exclusively across a tick and drives the fixed
// integration step. dt is fixed at construction and never mutated
// mid-run: a changing step size would be as much a silent scheme
// change as swapping the integrator itself.
type Scheduler struct {
	State *State
	dt    float64

	integ physics.Integrator

	// Sample, if set, is called once per successful tick with the
	// fresh state -- the observer ring buffer's append hook.
	Sample func(*State)
}

// NewScheduler constructs a Scheduler over the given state with a
// fixed timestep dt (e.g. 1e-6 s).
func NewScheduler(state *State, dt float64) *Scheduler {
	return &Scheduler{State: state, dt: dt}
}

// DT returns the scheduler's fixed integration step.
func (sched *Scheduler) DT() float64 { return sched.dt }

// Tick runs exactly one fixed-step iteration in order: (a) controller
// if due, (b) gate/PWM advance, (c) physics integration, (d) observer
// sample.
func (sched *Scheduler) Tick() error {
	s := sched.State

	// (a) Controller, dispatched through the tagged CommutationMode.
	thetaE := s.Kin.ElectricalAngle(s.Motor.NumPolePairs)
	in := control.Inputs{
		Mode:                s.Mode,
		ManualCommanded:     s.ManualCommanded,
		SixStepPhaseAdvance: s.SixStepPhaseAdvance,
		ThetaE:              thetaE,
	}
	if s.Mode == control.FOC {
		if s.Foc.Due(s.Time) {
			in.Foc = &s.Foc
			in.FocInputs = control.FOCInputs{
				Params:        &s.Motor,
				BusVoltage:    s.Board.BusVoltage,
				ThetaE:        thetaE,
				Omega:         s.Kin.RotorAngularVel,
				PhaseCurrents: s.Elec.PhaseCurrents,
				RotorAngle:    s.Kin.RotorAngle,
				DesiredTorque: s.DesiredTorque,
				SimTime:       s.Time,
			}
			if err := control.Tick(in, &s.Gates, &s.PWM); err != nil {
				return err
			}
		}
	} else {
		if err := control.Tick(in, &s.Gates, &s.PWM); err != nil {
			return err
		}
	}

	// (b) Gate dead-time and PWM carrier advance. Under FOC the carrier
	// comparison derives Commanded from the duty cycle each tick before
	// the dead-time state machine resolves Actual; manual/six-step wrote
	// Commanded directly above, so only the dead-time resolution runs.
	if s.Mode == control.FOC {
		s.PWM.AdvancePWM(&s.Board, sched.dt, &s.Gates)
	}
	s.Gates.AdvanceGates(&s.Board, sched.dt)

	// (c) Physics integration.
	if err := sched.integ.Step(&s.Motor, &s.Board, &s.Gates, &s.Kin, &s.Elec, s.LoadTorque, sched.dt); err != nil {
		return err
	}

	s.Time += sched.dt

	// (d) Observer sample.
	if sched.Sample != nil {
		sched.Sample(s)
	}
	return nil
}

// Advance runs up to State.StepMultiplier ticks for one host frame,
// skipping entirely when paused: pausing simply skips the per-frame
// tick loop, there is no in-flight work to cancel.
func (sched *Scheduler) Advance() error {
	if sched.State.Paused {
		return nil
	}
	for i := 0; i < sched.State.StepMultiplier; i++ {
		if err := sched.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// DiodeSentinelCount returns the cumulative count of pole voltages (one
// per phase per tick) that had to be chosen arbitrarily.
func (sched *Scheduler) DiodeSentinelCount() uint64 {
	return sched.integ.DiodeSentinelCount
}
