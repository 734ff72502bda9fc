// Package physics implements the fixed-timestep forward-Euler
// electromechanical integrator: one Step couples the H-bridge gate
// state, back-EMF, neutral-point voltage, phase currents, torque
// (electromagnetic + cogging - load), and rotor kinematics, in a fixed
// nine-stage order. This is the core of the simulator; it is
// intentionally a single unconditional Euler step with no adaptive or
// higher-order scheme substituted underneath it.
package physics

import (
	"errors"
	"math"

	"github.com/wtliu/motorsim/board"
	"github.com/wtliu/motorsim/mathx"
	"github.com/wtliu/motorsim/motor"
)

// ErrNonFiniteState marks a NaNGuard failure: the integrator has
// produced a NaN or Inf and the host loop should abort rather than
// keep stepping a state that can no longer be trusted.
var ErrNonFiniteState = errors.New("physics: state became non-finite")

// Integrator holds the per-tick bookkeeping the physics step needs
// beyond the motor/electrical/kinematic state itself.
type Integrator struct {
	// DiodeSentinelCount counts pole voltages (one per phase per tick)
	// that had to be chosen arbitrarily because |i_phase| was below the
	// diode-active threshold. It is monotonic and never reset, a running count of a
	// documented numerical degeneracy rather than a fatal condition.
	DiodeSentinelCount uint64
}

// Step advances kinematic/electrical state by one tick of length dt
// under the given motor parameters, board parameters, gate state, and
// load torque, running the nine stages below in order.
func (integ *Integrator) Step(
	params *motor.Params,
	boardParams *board.Params,
	gates *board.GateState,
	kin *motor.Kinematic,
	elec *motor.Electrical,
	loadTorque float64,
	dt float64,
) error {
	thetaE := kin.ElectricalAngle(params.NumPolePairs)
	omega := kin.RotorAngularVel

	// Step 1: pole voltages from (bus_voltage, actual gate, phase current).
	var vPole [3]float64
	for n := 0; n < 3; n++ {
		v, sentinel, err := board.PoleVoltage(boardParams, gates.Actual[n], elec.PhaseCurrents[n])
		if err != nil {
			return err
		}
		vPole[n] = v
		if sentinel {
			integ.DiodeSentinelCount++
		}
	}

	// Step 2: back-EMFs.
	normed := params.PhaseNormedBEmfs(thetaE)
	var bEmf [3]float64
	for n := 0; n < 3; n++ {
		bEmf[n] = normed[n] * omega
	}
	elec.NormedBEmfs = normed
	elec.BEmfs = bEmf

	// Step 3: neutral voltage (wye, isolated neutral).
	sumPole := vPole[0] + vPole[1] + vPole[2]
	sumBEmf := bEmf[0] + bEmf[1] + bEmf[2]
	vNeutral := (sumPole - sumBEmf) / 3

	// Step 4: phase voltages.
	var vPhase [3]float64
	for n := 0; n < 3; n++ {
		vPhase[n] = vPole[n] - vNeutral
	}

	// Step 5-6: current derivative and update.
	for n := 0; n < 3; n++ {
		didt := (vPhase[n] - bEmf[n] - params.PhaseResistance*elec.PhaseCurrents[n]) / params.PhaseInductance
		elec.PhaseCurrents[n] += didt * dt
	}

	// Step 7-8: electromagnetic + cogging torque, less load.
	tauEm := 0.0
	for n := 0; n < 3; n++ {
		tauEm += elec.PhaseCurrents[n] * normed[n]
	}
	tauCogging := params.CoggingTorque(kin.RotorAngle)
	kin.Torque = tauEm + tauCogging - loadTorque

	// Step 9: rotor update.
	kin.RotorAngularAccel = kin.Torque / params.RotorInertia
	kin.RotorAngularVel += kin.RotorAngularAccel * dt
	kin.RotorAngle = mathx.WrapAngle(kin.RotorAngle + kin.RotorAngularVel*dt)

	if !NaNGuard(kin, elec) {
		return ErrNonFiniteState
	}
	return nil
}

// NaNGuard reports whether all of the integrator's live state is still
// finite: it returns false once any value has drifted to NaN or Inf, a
// defensive check a host loop can use to abort rather than propagate
// garbage.
func NaNGuard(kin *motor.Kinematic, elec *motor.Electrical) bool {
	vals := []float64{kin.RotorAngle, kin.RotorAngularVel, kin.RotorAngularAccel, kin.Torque}
	vals = append(vals, elec.PhaseCurrents[:]...)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
