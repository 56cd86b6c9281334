package io

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/phil-mansfield/vortrace/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestImageRoundTrip(t *testing.T) {
	ext, err := geom.NewExtent(geom.Interval{0, 1}, geom.Interval{-2, 2})
	require.NoError(t, err)
	att, err := geom.AttitudeFromLabel("xz")
	require.NoError(t, err)
	frame := NewFrameInfo(
		ext, geom.Resolution{2, 3}, geom.Bounds{Start: 0, End: 5},
		&r3.Vec{X: 1, Y: 2, Z: 3}, att,
	)

	img := [][]float64{{1, 2, 3}, {4, 5, 6}}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteImage(Projection, img, frame, buf))

	hd, out, err := ReadImage(buf)
	require.NoError(t, err)
	assert.Equal(t, img, out)
	assert.Equal(t, int64(Projection), hd.Type.ImageType)
	assert.Equal(t, frame, hd.Frame)
	assert.Equal(t, 0, buf.Len())
}

func TestImageUnrotatedCenter(t *testing.T) {
	ext, _ := geom.NewExtent(geom.Interval{0, 1})
	frame := NewFrameInfo(
		ext, geom.SquareResolution(1), geom.Bounds{Start: 0.5, End: 0.5},
		nil, geom.Attitude{},
	)
	for k := 0; k < 3; k++ {
		assert.True(t, math.IsNaN(frame.Center[k]))
	}

	fname := filepath.Join(t.TempDir(), "slice.proj")
	f, err := os.Create(fname)
	require.NoError(t, err)
	require.NoError(t, WriteImage(Slice, [][]float64{{7}}, frame, f))
	require.NoError(t, f.Close())

	f, err = os.Open(fname)
	require.NoError(t, err)
	defer f.Close()
	hd, img, err := ReadImage(f)
	require.NoError(t, err)
	assert.Equal(t, "Slice", ImageFlag(hd.Type.ImageType).String())
	assert.Equal(t, [][]float64{{7}}, img)
}

func TestWriteImageShapeErrors(t *testing.T) {
	ext, _ := geom.NewExtent(geom.Interval{0, 1})
	frame := NewFrameInfo(
		ext, geom.Resolution{2, 2}, geom.Bounds{Start: 0, End: 1},
		nil, geom.Attitude{},
	)

	table := [][][]float64{
		{{1, 2}},
		{{1, 2}, {3}},
		{{1, 2}, {3, 4}, {5, 6}},
	}
	for i, img := range table {
		if err := WriteImage(Projection, img, frame, &bytes.Buffer{}); err == nil {
			t.Errorf("%d) expected error for image %v", i+1, img)
		}
	}
}

func TestReadImageErrors(t *testing.T) {
	_, _, err := ReadImage(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)

	ext, _ := geom.NewExtent(geom.Interval{0, 1})
	frame := NewFrameInfo(
		ext, geom.Resolution{2, 2}, geom.Bounds{Start: 0, End: 1},
		nil, geom.Attitude{},
	)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteImage(Projection, [][]float64{{1, 2}, {3, 4}}, frame, buf))
	truncated := buf.Bytes()[:buf.Len()-8]
	_, _, err = ReadImage(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestReadPoints(t *testing.T) {
	text := "0 1 2 3 10\n" +
		"4 5 6 7 20\n" +
		"8 9 10 11 30\n"
	fname := filepath.Join(t.TempDir(), "points.txt")
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))

	pos, rho, err := ReadPoints(fname, []int{0, 1, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{
		{X: 0, Y: 1, Z: 2}, {X: 4, Y: 5, Z: 6}, {X: 8, Y: 9, Z: 10},
	}, pos)
	assert.Equal(t, []float64{10, 20, 30}, rho)

	_, _, err = ReadPoints(fname, []int{0, 1, 2})
	assert.Error(t, err)
	_, _, err = ReadPoints(filepath.Join(t.TempDir(), "missing.txt"), []int{0, 1, 2, 3})
	assert.Error(t, err)
}

func TestFlatImageRoundTrip(t *testing.T) {
	img := [][]float64{{1, 2}, {3, 4}}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFlatImage(img, buf))

	// Only the pixels are written.
	assert.Equal(t, 4*8, buf.Len())
	assert.Equal(t, 3.0, math.Float64frombits(binary.LittleEndian.Uint64(buf.Bytes()[16:24])))

	out, err := ReadFlatImage(buf, geom.Resolution{2, 2})
	require.NoError(t, err)
	assert.Equal(t, img, out)

	assert.Error(t, WriteFlatImage([][]float64{{1, 2}, {3}}, &bytes.Buffer{}))
	_, err = ReadFlatImage(bytes.NewReader(make([]byte, 24)), geom.Resolution{2, 2})
	assert.Error(t, err)
}

func TestReadImagePixelLimit(t *testing.T) {
	table := []struct {
		n0, n1 int64
	}{
		{-1, 4},
		{4, -1},
		{1 << 20, 1 << 20},
		{MaxImagePixels + 1, 1},
	}

	for i, test := range table {
		hd := ImageHeader{}
		hd.Type.Endianness = -1
		hd.Type.HeaderSize = int64(unsafe.Sizeof(hd))
		hd.Frame.Pixels = [2]int64{test.n0, test.n1}

		buf := &bytes.Buffer{}
		require.NoError(t, binary.Write(buf, binary.LittleEndian, &hd))
		if _, _, err := ReadImage(buf); err == nil {
			t.Errorf("%d) expected error for %d x %d image", i+1, test.n0, test.n1)
		}
	}

	_, err := ReadFlatImage(&bytes.Buffer{}, geom.Resolution{1 << 20, 1 << 20})
	assert.Error(t, err)
}
