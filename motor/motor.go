// Package motor holds the pure-data motor model: constant parameters,
// kinematic and electrical state, and the odd-harmonic back-EMF and
// cogging-torque helpers the physics integrator evaluates every tick.
package motor

import (
	"errors"
	"fmt"
	"math"

	"github.com/wtliu/motorsim/mathx"
)

// CoggingMapLen is the fixed-length table size for one mechanical
// revolution of sampled cogging torque.
const CoggingMapLen = 3600

// phaseOffsets are the electrical-angle offsets of phases B and C
// relative to A: +/-2*pi/3.
var phaseOffsets = [3]float64{0, 2 * math.Pi / 3, -2 * math.Pi / 3}

// Params holds the constants for one motor. It is immutable once
// validated: edits go through sim.State.SetMotorParams, which rejects
// invalid values (via Validate) so the tick path never observes one.
type Params struct {
	NumPolePairs    int     // 1..8
	RotorInertia    float64 // kg*m^2, > 0
	PhaseResistance float64 // ohm, > 0
	PhaseInductance float64 // H, > 0

	// NormedBEmfCoeffs are [a1, a3, a5, a7, a9], the odd-harmonic sine
	// series coefficients of the back-EMF waveform at omega=1 (V*s/rad).
	NormedBEmfCoeffs [5]float64

	// CoggingTorqueMap is a CoggingMapLen-entry table of torque samples
	// indexed by mechanical angle, linearly interpolated and wrapped at
	// the revolution boundary.
	CoggingTorqueMap [CoggingMapLen]float64

	// CoggingRecenter, when true (the default), subtracts the table's
	// mean at load time so its integral over a revolution is ~0,
	// avoiding a net energy gain/loss from an unbalanced map.
	CoggingRecenter bool
}

// DefaultParams returns a quiescent motor: sinusoidal bEMF, zero
// cogging, recentering enabled.
func DefaultParams() Params {
	p := Params{
		NumPolePairs:     1,
		RotorInertia:     1e-3,
		PhaseResistance:  0.1,
		PhaseInductance:  1e-4,
		NormedBEmfCoeffs: [5]float64{0.05, 0, 0, 0, 0},
		CoggingRecenter:  true,
	}
	return p
}

var (
	ErrInvalidPolePairs  = errors.New("motor: num_pole_pairs must be in [1,8]")
	ErrInvalidInertia    = errors.New("motor: rotor_inertia must be strictly positive")
	ErrInvalidResistance = errors.New("motor: phase_resistance must be strictly positive")
	ErrInvalidInductance = errors.New("motor: phase_inductance must be strictly positive")
)

// Validate rejects a physically invalid parameter set at the edit
// boundary: the tick path never observes one.
func (p *Params) Validate() error {
	if p.NumPolePairs < 1 || p.NumPolePairs > 8 {
		return fmt.Errorf("%w: got %d", ErrInvalidPolePairs, p.NumPolePairs)
	}
	if p.RotorInertia <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidInertia, p.RotorInertia)
	}
	if p.PhaseResistance <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidResistance, p.PhaseResistance)
	}
	if p.PhaseInductance <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidInductance, p.PhaseInductance)
	}
	return nil
}

// RecenterCoggingMap subtracts the table's mean in place if
// CoggingRecenter is set, and reports the (pre-recentering) integral
// so the caller can warn when an unbalanced cogging map would add or
// remove net energy each revolution (threshold 1e-8).
func (p *Params) RecenterCoggingMap() (integral float64, warned bool) {
	n := float64(len(p.CoggingTorqueMap))
	sum := 0.0
	for _, v := range p.CoggingTorqueMap {
		sum += v
	}
	mean := sum / n
	integral = sum * (2 * math.Pi / n)
	if p.CoggingRecenter {
		for i := range p.CoggingTorqueMap {
			p.CoggingTorqueMap[i] -= mean
		}
		return integral, false
	}
	return integral, math.Abs(integral) > 1e-8
}

// NormedBEmf evaluates the odd-harmonic sine series
// sum(a_{2k+1} * sin((2k+1)*thetaE)) at the waveform's omega=1
// normalization.
func (p *Params) NormedBEmf(thetaE float64) float64 {
	series := mathx.OddSineSeries(5, thetaE)
	sum := 0.0
	for k, a := range p.NormedBEmfCoeffs {
		sum += a * series[k]
	}
	return sum
}

// PhaseNormedBEmfs returns the per-phase normed bEMF (at omega=1) for
// all three phases at the given electrical angle.
func (p *Params) PhaseNormedBEmfs(thetaE float64) [3]float64 {
	var out [3]float64
	for n := 0; n < 3; n++ {
		out[n] = p.NormedBEmf(thetaE + phaseOffsets[n])
	}
	return out
}

// CoggingTorque linearly interpolates the cogging table at the given
// mechanical angle, wrapping cyclically at the table boundary.
func (p *Params) CoggingTorque(rotorAngle float64) float64 {
	theta := mathx.WrapAngle(rotorAngle)
	n := len(p.CoggingTorqueMap)
	scaled := theta / (2 * math.Pi) * float64(n)
	i0 := int(math.Floor(scaled)) % n
	i1 := (i0 + 1) % n
	frac := scaled - math.Floor(scaled)
	return p.CoggingTorqueMap[i0]*(1-frac) + p.CoggingTorqueMap[i1]*frac
}

// Kinematic is the rotor's mechanical state.
type Kinematic struct {
	RotorAngle        float64 // [0, 2*pi)
	RotorAngularVel   float64 // rad/s
	RotorAngularAccel float64 // rad/s^2
	Torque            float64 // N*m, total (em + cogging - load)
}

// ElectricalAngle returns pole_pairs*rotor_angle - pi/2, wrapped.
func (k *Kinematic) ElectricalAngle(polePairs int) float64 {
	return mathx.ElectricalAngle(polePairs, k.RotorAngle)
}

// Electrical is the three-phase electrical state.
type Electrical struct {
	PhaseCurrents [3]float64 // A
	BEmfs         [3]float64 // V (bEMF = normed_bEmf * omega)
	NormedBEmfs   [3]float64 // V*s/rad (the waveform at omega=1)
}
