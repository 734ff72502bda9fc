// Command motorsim runs a headless BLDC/PMSM simulation for a fixed
// simulated duration and optionally exports the recorded trace to CSV
// and/or a PNG chart. Construct, configure via setters, run -- the same
// minimal wiring shape the teacher's own cmd/main.go uses, generalized
// from one hardcoded netlist load to a flag-driven configuration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wtliu/motorsim/control"
	"github.com/wtliu/motorsim/observer"
	"github.com/wtliu/motorsim/sim"
	"gonum.org/v1/plot/vg"
)

func main() {
	mode := flag.String("mode", "six_step", "commutation mode: manual, six_step, or foc")
	duration := flag.Float64("duration", 1.0, "simulated seconds to run")
	dt := flag.Float64("dt", 1e-6, "fixed integration step, seconds")
	stepMultiplier := flag.Int("step-multiplier", 1, "ticks advanced per scheduler frame, [1,5000]")
	busVoltage := flag.Float64("bus-voltage", 24, "board bus voltage")
	loadTorque := flag.Float64("load-torque", 0, "constant external load torque, N*m")
	desiredTorque := flag.Float64("desired-torque", 0.01, "FOC desired torque, N*m")
	phaseAdvance := flag.Float64("six-step-phase-advance", 0, "six-step phase advance, turns in [-0.5,0.5]")
	focPeriod := flag.Float64("foc-period", 1e-4, "FOC controller tick period, seconds")
	ringCapacity := flag.Int("ring-capacity", 100000, "observer ring buffer capacity per channel")
	csvPath := flag.String("csv", "", "if set, write the recorded trace to this CSV path")
	pngPath := flag.String("png", "", "if set, render the recorded trace to this PNG path")
	flag.Parse()

	commutationMode, err := parseMode(*mode)
	if err != nil {
		log.Fatalf("motorsim: %v", err)
	}

	state := sim.NewState()
	state.Mode = commutationMode
	state.Board.BusVoltage = *busVoltage
	state.LoadTorque = *loadTorque
	state.DesiredTorque = *desiredTorque
	state.SixStepPhaseAdvance = *phaseAdvance
	state.Foc.Period = *focPeriod
	state.Foc.IqController.AntiWindup = true
	state.Foc.IdController.AntiWindup = true
	pGain, iGain := control.AutoTune(1000, state.Motor.PhaseResistance, state.Motor.PhaseInductance)
	state.Foc.IqController.PGain, state.Foc.IqController.IGain = pGain, iGain
	state.Foc.IdController.PGain, state.Foc.IdController.IGain = pGain, iGain

	if err := state.SetStepMultiplier(*stepMultiplier); err != nil {
		log.Fatalf("motorsim: %v", err)
	}
	if err := state.Board.Validate(); err != nil {
		log.Fatalf("motorsim: %v", err)
	}

	channels := observer.NewChannels(*ringCapacity)
	sched := sim.NewScheduler(state, *dt)
	sched.Sample = func(s *sim.State) {
		channels.Sample(s.Time, s.Kin.Torque, s.Elec.BEmfs, s.Elec.PhaseCurrents)
	}

	ticks := int(*duration / *dt)
	for i := 0; i < ticks; i++ {
		if err := sched.Tick(); err != nil {
			log.Fatalf("motorsim: tick %d: %v", i, err)
		}
	}
	log.Printf("motorsim: ran %d ticks (%.6fs simulated), %d diode-polarity sentinels",
		ticks, state.Time, sched.DiodeSentinelCount())

	if *csvPath != "" {
		if err := exportCSV(*csvPath, channels); err != nil {
			log.Fatalf("motorsim: %v", err)
		}
	}
	if *pngPath != "" {
		if err := observer.RenderPNG(channels, *pngPath, 8*vg.Inch, 4*vg.Inch); err != nil {
			log.Fatalf("motorsim: %v", err)
		}
	}
}

func parseMode(s string) (control.CommutationMode, error) {
	switch s {
	case "manual":
		return control.Manual, nil
	case "six_step":
		return control.SixStep, nil
	case "foc":
		return control.FOC, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want manual, six_step, or foc)", s)
	}
}

func exportCSV(path string, channels *observer.Channels) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()
	if err := observer.WriteCSV(f, channels); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
