package mathx

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestClarkeRoundTrip(t *testing.T) {
	cases := [][3]float64{
		{1, -0.5, -0.5},
		{3.7, -1.1, -2.6},
		{-2, 1, 1},
	}
	for _, c := range cases {
		a, b, cc := c[0], c[1], c[2]
		v := Clarke(a, b, cc)
		ga, gb, gc := InverseClarke(v)
		if math.Abs(ga-a) > 1e-12 || math.Abs(gb-b) > 1e-12 || math.Abs(gc-cc) > 1e-12 {
			t.Errorf("round trip mismatch for %v: got (%v,%v,%v)", c, ga, gb, gc)
		}
	}
}

func TestParkRoundTrip(t *testing.T) {
	v := complex(2.0, -1.5)
	for theta := 0.0; theta < 2*math.Pi; theta += 0.37 {
		qd := Park(v, theta)
		back := InversePark(qd, theta)
		if cmplx.Abs(back-v) > 1e-12 {
			t.Errorf("park round trip failed at theta=%v: got %v want %v", theta, back, v)
		}
	}
}

func TestOddSineSeries(t *testing.T) {
	for theta := -3.0; theta < 3.0; theta += 0.41 {
		series := OddSineSeries(5, theta)
		for k := 0; k < 5; k++ {
			want := math.Sin(float64(2*k+1) * theta)
			if math.Abs(series[k]-want) > 1e-14 {
				t.Errorf("theta=%v k=%d: got %v want %v", theta, k, series[k], want)
			}
		}
	}
}

func TestWrapAngle(t *testing.T) {
	cases := []float64{-0.1, -10, 0, 2 * math.Pi, 7.5, 100}
	for _, theta := range cases {
		w := WrapAngle(theta)
		if w < 0 || w >= 2*math.Pi {
			t.Errorf("WrapAngle(%v) = %v out of [0,2pi)", theta, w)
		}
	}
}
