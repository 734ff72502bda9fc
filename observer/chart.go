package observer

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderPNG snapshots the ring buffer's torque and three phase-current
// channels to a single time-series PNG at path. This is a read-only,
// one-shot rendering utility -- not a live GUI -- for an already
// recorded simulation trace.
func RenderPNG(c *Channels, path string, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = "motor simulation"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "torque (N*m) / current (A)"

	n := c.Count()
	torque := make(plotter.XYs, n)
	ia := make(plotter.XYs, n)
	ib := make(plotter.XYs, n)
	ic := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		t := c.Time.At(i)
		torque[i].X, torque[i].Y = t, c.Torque.At(i)
		ia[i].X, ia[i].Y = t, c.CurrentA.At(i)
		ib[i].X, ib[i].Y = t, c.CurrentB.At(i)
		ic[i].X, ic[i].Y = t, c.CurrentC.At(i)
	}

	series := []struct {
		name string
		pts  plotter.XYs
	}{
		{"torque", torque},
		{"current_a", ia},
		{"current_b", ib},
		{"current_c", ic},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("observer: build %s line: %w", s.name, err)
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("observer: save png: %w", err)
	}
	return nil
}
