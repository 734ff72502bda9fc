package control

import (
	"math"
	"testing"

	"github.com/wtliu/motorsim/board"
	"github.com/wtliu/motorsim/motor"
)

func TestSixStepSectors(t *testing.T) {
	// Each sector should be one of the six standard commutation states,
	// and exactly one phase should be OFF in every sector.
	for i := 0; i < 600; i++ {
		theta := float64(i) / 600 * 2 * math.Pi
		levels := SixStepLevels(theta, 0)
		offCount, highCount, lowCount := 0, 0, 0
		for _, l := range levels {
			switch l {
			case SixStepOff:
				offCount++
			case SixStepHigh:
				highCount++
			case SixStepLow:
				lowCount++
			}
		}
		if offCount != 1 || highCount != 1 || lowCount != 1 {
			t.Fatalf("theta=%v: expected exactly one HIGH, one LOW, one OFF, got %v", theta, levels)
		}
	}
}

func TestPISteadyState(t *testing.T) {
	// Invariant 9: constant desired iq, zero load dynamics -> iq
	// converges to within 1% of iq_desired within 5/sqrt(p*i) seconds.
	pGain, iGain := 50.0, 5000.0
	pi := PIState{PGain: pGain, IGain: iGain, AntiWindup: true, SatLimit: 100}

	desired := 2.0
	measured := 0.0
	period := 1e-5
	tau := 1e-3 // first-order plant time constant (e.g. L/R)
	maxTime := 5 / math.Sqrt(pGain*iGain)

	converged := false
	for tm := 0.0; tm < maxTime*2; tm += period {
		u := pi.Update(desired, measured, period)
		// first-order plant: d(measured)/dt = (u - measured)/tau (unit gain)
		measured += (u - measured) / tau * period
		if math.Abs(measured-desired) < 0.01*desired && tm <= maxTime {
			converged = true
		}
	}
	if !converged {
		t.Errorf("iq did not converge within bandwidth-implied settling time")
	}
}

func TestSpaceVectorModulationQuantized(t *testing.T) {
	// S4: resolution=2^-1, FOC active -> emitted duties in {0, 0.5, 1}.
	bus := 24.0
	for _, v := range []complex128{complex(5, 3), complex(-8, 2), complex(0, -10)} {
		duties := SpaceVectorModulate(v, bus)
		for _, d := range duties {
			if d < 0 || d > 1 {
				t.Fatalf("duty %v out of [0,1]", d)
			}
			q := board.Quantize(d, board.Resolution1Bit)
			if q != 0 && q != 0.5 && q != 1 {
				t.Errorf("quantized duty %v not in {0,0.5,1}", q)
			}
		}
	}
}

func TestFOCTickDutiesInRange(t *testing.T) {
	params := motor.DefaultParams()
	params.NumPolePairs = 4
	params.PhaseResistance = 0.1
	params.PhaseInductance = 1e-4
	params.NormedBEmfCoeffs = [5]float64{0.05, 0, 0, 0, 0}

	pGain, iGain := AutoTune(1000, params.PhaseResistance, params.PhaseInductance)
	foc := FocState{
		Period:       1e-5,
		IqController: PIState{PGain: pGain, IGain: iGain, AntiWindup: true},
		IdController: PIState{PGain: pGain, IGain: iGain, AntiWindup: true},
	}

	duties := foc.Tick(FOCInputs{
		Params:        &params,
		BusVoltage:    24,
		ThetaE:        0.3,
		Omega:         50,
		PhaseCurrents: [3]float64{0, 0, 0},
		RotorAngle:    0.1,
		DesiredTorque: 0.2,
		SimTime:       1e-5,
	})
	for _, d := range duties {
		if d < 0 || d > 1 {
			t.Errorf("duty out of range: %v", d)
		}
	}
}
