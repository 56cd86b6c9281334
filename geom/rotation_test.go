package geom

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecEpsEq(v1, v2 r3.Vec, eps float64) bool {
	d := r3.Sub(v1, v2)
	return math.Abs(d.X) <= eps && math.Abs(d.Y) <= eps && math.Abs(d.Z) <= eps
}

func TestRotationMatrix(t *testing.T) {
	eps := 1e-12
	table := []struct {
		yaw, pitch, roll float64
		start, end       r3.Vec
	}{
		{0, 0, 0, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1, Y: 2, Z: 3}},
		// yaw turns about z
		{math.Pi / 2, 0, 0, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		// pitch turns about y
		{0, math.Pi / 2, 0, r3.Vec{X: 1}, r3.Vec{Z: -1}},
		{0, math.Pi / 2, 0, r3.Vec{Z: 1}, r3.Vec{X: 1}},
		// roll turns about x
		{0, 0, math.Pi / 2, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{0, 0, math.Pi / 2, r3.Vec{X: 1}, r3.Vec{X: 1}},
		// roll is applied first, then pitch, then yaw
		{math.Pi / 2, 0, math.Pi / 2, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{math.Pi / 2, 0, math.Pi / 2, r3.Vec{Z: 1}, r3.Vec{X: 1}},
	}

	for i, test := range table {
		m := RotationMatrix(test.yaw, test.pitch, test.roll)
		v := m.MulVec(test.start)
		if !vecEpsEq(v, test.end, eps) {
			t.Errorf(
				"%d) R(%.4g %.4g %.4g) %v -> %v instead of %v",
				i+1, test.yaw, test.pitch, test.roll, test.start, v, test.end,
			)
		}
	}
}

func TestRotationMatrixElements(t *testing.T) {
	yaw, pitch, roll := 0.4, -1.1, 2.5
	ca, sa := math.Cos(yaw), math.Sin(yaw)
	cb, sb := math.Cos(pitch), math.Sin(pitch)
	cg, sg := math.Cos(roll), math.Sin(roll)
	want := [3][3]float64{
		{ca * cb, ca*sb*sg - sa*cg, ca*sb*cg + sa*sg},
		{sa * cb, sa*sb*sg + ca*cg, sa*sb*cg - ca*sg},
		{-sb, cb * sg, cb * cg},
	}

	m := RotationMatrix(yaw, pitch, roll)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m.At(i, j)-want[i][j]) > 1e-15 {
				t.Errorf("R[%d][%d] = %g, expected %g", i, j, m.At(i, j), want[i][j])
			}
		}
	}
}

func TestAttitudeFromLabel(t *testing.T) {
	table := []struct {
		label            string
		yaw, pitch, roll float64
		hand             Handedness
	}{
		{"xy", 0, 0, 0, RightHanded},
		{"yz", math.Pi / 2, 0, math.Pi / 2, RightHanded},
		{"zx", 3 * math.Pi / 2, 3 * math.Pi / 2, 0, RightHanded},
		{"yx", math.Pi / 2, 0, math.Pi, LeftHanded},
		{"xz", 0, 0, math.Pi / 2, LeftHanded},
		{"zy", 0, 3 * math.Pi / 2, 0, LeftHanded},
	}

	for i, test := range table {
		att, err := AttitudeFromLabel(test.label)
		if err != nil {
			t.Fatalf("%d) unexpected error: %s", i+1, err)
		}
		if att.Yaw != test.yaw || att.Pitch != test.pitch ||
			att.Roll != test.roll || att.Hand != test.hand {
			t.Errorf("%d) '%s' gave %+v", i+1, test.label, att)
		}
	}

	if len(Labels()) != len(table) {
		t.Errorf("Labels() has %d entries, expected %d", len(Labels()), len(table))
	}
	for _, label := range Labels() {
		if _, err := AttitudeFromLabel(label); err != nil {
			t.Errorf("Labels() entry '%s' not recognized", label)
		}
	}

	if _, err := AttitudeFromLabel("xx"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel for 'xx', got %v", err)
	}
}

func TestBoundsOrient(t *testing.T) {
	table := []struct {
		b    Bounds
		hand Handedness
		out  Bounds
	}{
		{Bounds{0, 1}, RightHanded, Bounds{0, 1}},
		{Bounds{0, 1}, LeftHanded, Bounds{1, 0}},
		{Bounds{1, 0}, RightHanded, Bounds{0, 1}},
		{Bounds{1, 0}, LeftHanded, Bounds{1, 0}},
		{Bounds{2, 2}, RightHanded, Bounds{2, 2}},
	}

	for i, test := range table {
		if out := test.b.Orient(test.hand); out != test.out {
			t.Errorf("%d) %v.Orient(%d) = %v, expected %v",
				i+1, test.b, test.hand, out, test.out)
		}
	}
}
