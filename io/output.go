package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unsafe"

	"github.com/phil-mansfield/vortrace/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

var end = binary.LittleEndian

// MaxImagePixels is the largest image ReadImage and ReadFlatImage will
// allocate.
const MaxImagePixels = 1 << 27

// ImageFlag identifies what an image file contains.
type ImageFlag int64

const (
	Projection ImageFlag = iota
	Slice
)

func (flag ImageFlag) String() string {
	switch flag {
	case Projection:
		return "Projection"
	case Slice:
		return "Slice"
	}
	return fmt.Sprintf("ImageFlag(%d)", int64(flag))
}

type ImageHeader struct {
	Type  TypeInfo
	Frame FrameInfo
}

type TypeInfo struct {
	Endianness int64
	HeaderSize int64
	ImageType  int64
}

// FrameInfo describes the rays or sample points which produced an image.
// For slices, Bounds holds the depth twice. Center is NaN if the image was
// not rotated.
type FrameInfo struct {
	Extent           [4]float64
	Pixels           [2]int64
	Bounds           [2]float64
	Center           [3]float64
	Yaw, Pitch, Roll float64
}

// NewFrameInfo packs the parameters of an image into a FrameInfo.
func NewFrameInfo(
	ext geom.Extent, res geom.Resolution, bounds geom.Bounds,
	center *r3.Vec, att geom.Attitude,
) FrameInfo {
	fi := FrameInfo{
		Extent: [4]float64{ext[0][0], ext[0][1], ext[1][0], ext[1][1]},
		Pixels: [2]int64{int64(res[0]), int64(res[1])},
		Bounds: [2]float64{bounds.Start, bounds.End},
		Yaw:    att.Yaw, Pitch: att.Pitch, Roll: att.Roll,
	}
	if center == nil {
		fi.Center = [3]float64{math.NaN(), math.NaN(), math.NaN()}
	} else {
		fi.Center = [3]float64{center.X, center.Y, center.Z}
	}
	return fi
}

// WriteImage writes an image and its header to wr. img must be
// frame.Pixels[0] x frame.Pixels[1].
func WriteImage(
	flag ImageFlag, img [][]float64, frame FrameInfo, wr io.Writer,
) error {
	hd := ImageHeader{}
	hd.Type.Endianness = -1
	hd.Type.HeaderSize = int64(unsafe.Sizeof(hd))
	hd.Type.ImageType = int64(flag)
	hd.Frame = frame

	if int64(len(img)) != frame.Pixels[0] {
		return fmt.Errorf(
			"Image has %d rows, but header gives %d.", len(img), frame.Pixels[0],
		)
	}

	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}
	for i := range img {
		if int64(len(img[i])) != frame.Pixels[1] {
			return fmt.Errorf(
				"Row %d of image has %d pixels, but header gives %d.",
				i, len(img[i]), frame.Pixels[1],
			)
		}
		if err := binary.Write(wr, end, img[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadImage reads an image written by WriteImage.
func ReadImage(rd io.Reader) (*ImageHeader, [][]float64, error) {
	hd := &ImageHeader{}
	if err := binary.Read(rd, end, hd); err != nil {
		return nil, nil, err
	}

	if hd.Type.Endianness != -1 {
		return nil, nil, fmt.Errorf("Image is not little endian.")
	} else if hd.Type.HeaderSize != int64(unsafe.Sizeof(*hd)) {
		return nil, nil, fmt.Errorf(
			"Image header has size %d, but expected %d.",
			hd.Type.HeaderSize, unsafe.Sizeof(*hd),
		)
	}
	if err := checkPixels(hd.Frame.Pixels[0], hd.Frame.Pixels[1]); err != nil {
		return nil, nil, err
	}

	img := make([][]float64, hd.Frame.Pixels[0])
	for i := range img {
		img[i] = make([]float64, hd.Frame.Pixels[1])
		if err := binary.Read(rd, end, img[i]); err != nil {
			return nil, nil, err
		}
	}
	return hd, img, nil
}

// checkPixels returns an error if an n0 x n1 image cannot be allocated.
func checkPixels(n0, n1 int64) error {
	if n0 < 0 || n1 < 0 {
		return fmt.Errorf("Image has negative pixel counts [%d %d].", n0, n1)
	} else if n1 > 0 && n0 > MaxImagePixels/n1 {
		return fmt.Errorf(
			"Image has %d x %d pixels, more than the limit of %d.",
			n0, n1, MaxImagePixels,
		)
	}
	return nil
}

// WriteFlatImage writes the pixels of img to wr as little-endian float64s
// with no header, row by row.
func WriteFlatImage(img [][]float64, wr io.Writer) error {
	for i := range img {
		if len(img[i]) != len(img[0]) {
			return fmt.Errorf(
				"Row %d of image has %d pixels, but row 0 has %d.",
				i, len(img[i]), len(img[0]),
			)
		}
	}
	for i := range img {
		if err := binary.Write(wr, end, img[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadFlatImage reads a res[0] x res[1] image written by WriteFlatImage.
func ReadFlatImage(rd io.Reader, res geom.Resolution) ([][]float64, error) {
	if err := checkPixels(int64(res[0]), int64(res[1])); err != nil {
		return nil, err
	}

	img := make([][]float64, res[0])
	for i := range img {
		img[i] = make([]float64, res[1])
		if err := binary.Read(rd, end, img[i]); err != nil {
			return nil, err
		}
	}
	return img, nil
}
