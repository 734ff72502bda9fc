package board

import (
	"math"
	"testing"
)

func TestGateDeadTime(t *testing.T) {
	// S6: dead_time = 2us, dt = 0.5us -> actual stays OFF for exactly 4 ticks.
	params := DefaultParams()
	params.DeadTime = 2e-6
	dt := 0.5e-6

	var g GateState
	g.Commanded = [3]bool{false, false, false}
	g.AdvanceGates(&params, dt) // settle initial state

	g.Commanded[0] = true // toggle phase A
	offTicks := 0
	for i := 0; i < 20; i++ {
		g.AdvanceGates(&params, dt)
		if g.Actual[0] == Off {
			offTicks++
		} else {
			break
		}
	}
	if offTicks != 4 {
		t.Errorf("expected exactly 4 OFF ticks after toggle, got %d", offTicks)
	}
	if g.Actual[0] != High {
		t.Errorf("expected actual to track commanded (HIGH) after dead-time, got %v", g.Actual[0])
	}
}

func TestPWMQuantization(t *testing.T) {
	params := DefaultParams()
	params.PWMResolution = Resolution1Bit // S4: 1-bit resolution -> {0, 0.5, 1}

	for _, duty := range []float64{0, 0.1, 0.24, 0.26, 0.5, 0.74, 0.9, 1} {
		q := Quantize(duty, params.PWMResolution)
		if q != 0 && q != 0.5 && q != 1 {
			t.Errorf("Quantize(%v) = %v, want one of {0, 0.5, 1}", duty, q)
		}
	}
}

func TestPWMQuantizationArbitraryResolution(t *testing.T) {
	res := Resolution(1.0 / 16)
	for duty := 0.0; duty <= 1; duty += 0.037 {
		q := Quantize(duty, res)
		ratio := q / float64(res)
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
			t.Errorf("Quantize(%v, %v) = %v is not a multiple of resolution", duty, res, q)
		}
		if q < 0 || q > 1 {
			t.Errorf("Quantize(%v) = %v out of [0,1]", duty, q)
		}
	}
}

func TestPoleVoltageFreewheel(t *testing.T) {
	params := DefaultParams()

	// current flowing out of the pole -> low-side diode conducts.
	v, sentinel, err := PoleVoltage(&params, Off, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentinel {
		t.Errorf("did not expect sentinel for i=1.0")
	}
	if v != -params.DiodeActiveVoltage {
		t.Errorf("expected -diode drop, got %v", v)
	}

	// current flowing into the pole -> high-side diode conducts.
	v, sentinel, err = PoleVoltage(&params, Off, -1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentinel {
		t.Errorf("did not expect sentinel for i=-1.0")
	}
	if v != params.BusVoltage+params.DiodeActiveVoltage {
		t.Errorf("expected bus+diode drop, got %v", v)
	}

	// near-zero current -> sentinel, deterministic rail (0).
	v, sentinel, err = PoleVoltage(&params, Off, 1e-9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sentinel {
		t.Errorf("expected sentinel for near-zero current")
	}
	if v != 0 {
		t.Errorf("expected deterministic 0V rail, got %v", v)
	}
}

func TestPoleVoltageUnreachable(t *testing.T) {
	params := DefaultParams()
	_, _, err := PoleVoltage(&params, GateLevel(99), 0)
	if err == nil {
		t.Fatal("expected error for unreachable gate state")
	}
}
