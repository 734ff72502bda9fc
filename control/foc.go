package control

import (
	"math"

	"github.com/wtliu/motorsim/mathx"
	"github.com/wtliu/motorsim/motor"
)

// FocState is the periodic digital controller's state: tick period and
// bookkeeping, the two current regulators, and the last commanded
// voltage vector in the rotor frame.
type FocState struct {
	Period       float64 // seconds, controller tick interval
	LastTickTime float64

	IqController PIState
	IdController PIState

	// VoltageQD is the last commanded voltage vector in the rotor
	// frame: real = q, imag = d.
	VoltageQD complex128

	NonSinusoidalDrive bool // account for all five bEMF harmonics
	UseCoggingComp     bool // feedforward cogging compensation
	UseQDDecoupling    bool // qd cross-coupling feedforward
}

// Due reports whether the controller's period has elapsed since its
// last tick: it runs only when time - last_tick_time >= period.
func (f *FocState) Due(simTime float64) bool {
	return simTime-f.LastTickTime >= f.Period
}

// FOCInputs bundles the per-tick FOC Tick arguments that are not part
// of FocState itself.
type FOCInputs struct {
	Params        *motor.Params
	BusVoltage    float64
	ThetaE        float64
	Omega         float64
	PhaseCurrents [3]float64
	RotorAngle    float64
	DesiredTorque float64
	SimTime       float64
}

// desiredIqId converts a desired torque to desired (iq, id): sinusoidal
// mode uses the fundamental-only torque constant; non-sinusoidal mode
// accounts for all five harmonics
// by evaluating the torque-per-amp curve at the current angle and
// inverting it numerically (a scalar Newton step is enough since the
// curve is a sum of sinusoids close to linear near the operating
// point).
func desiredIqId(params *motor.Params, thetaE, desiredTorque float64, nonSinusoidal bool) (iq, id float64) {
	a1 := params.NormedBEmfCoeffs[0]
	torqueConst := a1 * float64(params.NumPolePairs) * 1.5
	if torqueConst == 0 {
		return 0, 0
	}
	if !nonSinusoidal {
		return desiredTorque / torqueConst, 0
	}
	// Non-sinusoidal: torque(iq) = iq * normedBEmf(thetaE) * 1.5 * polePairs,
	// i.e. the instantaneous torque-per-amp slope replaces the constant a1.
	slope := params.NormedBEmf(thetaE) * float64(params.NumPolePairs) * 1.5
	if math.Abs(slope) < 1e-9 {
		slope = torqueConst
	}
	return desiredTorque / slope, 0
}

// Tick runs one FOC control cycle, writing the commanded three-phase
// duties. It must be called only when Due
// reports true; the caller is responsible for that gating so the
// controller's own state (LastTickTime) stays authoritative.
func (f *FocState) Tick(in FOCInputs) (duties [3]float64) {
	f.LastTickTime = in.SimTime

	// Step 1-2: Clarke + Park on measured currents.
	iab := mathx.Clarke(in.PhaseCurrents[0], in.PhaseCurrents[1], in.PhaseCurrents[2])
	iqd := mathx.Park(iab, in.ThetaE)
	iq, id := real(iqd), imag(iqd)

	// Step 3: desired torque -> desired iq, id.
	iqDesired, idDesired := desiredIqId(in.Params, in.ThetaE, in.DesiredTorque, f.NonSinusoidalDrive)

	// Step 6: cogging feedforward, folded into iqDesired before the PI.
	if f.UseCoggingComp {
		a1 := in.Params.NormedBEmfCoeffs[0]
		torqueConst := a1 * float64(in.Params.NumPolePairs) * 1.5
		if torqueConst != 0 {
			tauCog := in.Params.CoggingTorque(in.RotorAngle)
			iqDesired += tauCog / torqueConst
		}
	}

	// Step 4: PI update per axis, with anti-windup clamped to +/-bus/sqrt(3).
	satLimit := in.BusVoltage / math.Sqrt(3)
	f.IqController.SatLimit = satLimit
	f.IdController.SatLimit = satLimit
	uq := f.IqController.Update(iqDesired, iq, f.Period)
	ud := f.IdController.Update(idDesired, id, f.Period)

	// Step 5: qd decoupling feedforward.
	if f.UseQDDecoupling {
		omegaE := in.Omega * float64(in.Params.NumPolePairs)
		uq += omegaE * in.Params.PhaseInductance * id
		ud -= omegaE * in.Params.PhaseInductance * iq
	}

	f.VoltageQD = complex(uq, ud)

	// Step 7: rotate back to the stationary frame.
	vab := mathx.InversePark(f.VoltageQD, in.ThetaE)

	// Step 8: space-vector modulation.
	return SpaceVectorModulate(vab, in.BusVoltage)
}

// SpaceVectorModulate converts a stationary alpha-beta voltage vector
// and bus voltage into three duties in [0,1] via standard min-max
// centering injection, without quantization -- the caller quantizes
// per the board's PWM resolution.
func SpaceVectorModulate(vab complex128, busVoltage float64) [3]float64 {
	a, b, c := mathx.InverseClarke(vab)
	lo := math.Min(a, math.Min(b, c))
	hi := math.Max(a, math.Max(b, c))
	offset := -lo + (busVoltage-(hi-lo))/2
	duties := [3]float64{
		(a + offset) / busVoltage,
		(b + offset) / busVoltage,
		(c + offset) / busVoltage,
	}
	for i := range duties {
		if duties[i] < 0 {
			duties[i] = 0
		} else if duties[i] > 1 {
			duties[i] = 1
		}
	}
	return duties
}
