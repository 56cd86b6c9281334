package io

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phil-mansfield/vortrace/geom"
	"github.com/phil-mansfield/vortrace/los"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/gcfg.v1"
)

const (
	ExampleCloudFile = `[Cloud]

#######################
# Required Parameters #
#######################

# Text file containing one point per line. Columns are given by
# PositionColumns and DensityColumn.
Input = path/to/points.txt
# Directory where the output .proj files will be written to.
Output = path/to/output/dir

#######################
# Optional Parameters #
#######################

# Zero-indexed columns of the x, y, and z coordinates and of the density.
# PositionColumns = 0 1 2
# DensityColumn = 3

# The bounding box as "xmin xmax ymin ymax zmin zmax". Defaults to the
# smallest box containing every point.
# BoundBox = 0 1 0 1 0 1

# Fraction of each side of the bounding box which is added on either end
# before points are discarded.
# Padding = 0.15

# Tolerances used when checking single rays.
# RelTolerance = 1e-5
# AbsTolerance = 1e-8

# Format of the output files. "Flat" files hold only the pixels as
# little-endian float64s, row by row. "Header" files start with a header
# describing the image frame.
# Format = Flat

# Names of the output files are PrependName + name + AppendName + ".proj".
# PrependName = pre_
# AppendName  = _app

# LogFile = log.out`
	ExampleProjectionFile = `[Projection "my_xy_projection"]
# Each Projection section renders one image of column densities. Every
# section is written to its own file, named after the section.

# Either "min max" (square) or "min0 max0 min1 max1".
Extent = 0 1

# Either one pixel count, or two.
Pixels = 512

# Start and end of each ray along the integration axis.
Bounds = 0 1

#######################
# Optional Parameters #
#######################

# The point the image frame is rotated about. If it is not set, the image
# is not rotated.
# Center = 0.5 0.5 0.5

# Proj must be one of [ xy | yz | zx | yx | xz | zy ]. The first letter is
# the image's first axis and the second letter is its second axis. The
# remaining axis is integrated over. Alternatively, set the Tait-Bryan angles
# Yaw, Pitch, and Roll (in radians) directly.
# Proj = xy
# Yaw = 0
# Pitch = 0
# Roll = 0`
	ExampleSliceFile = `[Slice "my_z_slice"]
# Each Slice section renders one image of the density of the cells at a fixed
# depth along the integration axis.

Extent = 0 1
Pixels = 512
Depth = 0.5

#######################
# Optional Parameters #
#######################

# Center, Proj, Yaw, Pitch, and Roll work the same way as they do for
# Projection sections.
# Center = 0.5 0.5 0.5
# Proj = xy`
)

// parseFloats parses the whitespace-separated floats in s.
func parseFloats(s string) ([]float64, error) {
	tokens := strings.Fields(s)
	xs := make([]float64, len(tokens))
	for i := range tokens {
		var err error
		xs[i], err = strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return nil, err
		}
	}
	return xs, nil
}

// parseInts parses the whitespace-separated ints in s.
func parseInts(s string) ([]int, error) {
	tokens := strings.Fields(s)
	xs := make([]int, len(tokens))
	for i := range tokens {
		var err error
		xs[i], err = strconv.Atoi(tokens[i])
		if err != nil {
			return nil, err
		}
	}
	return xs, nil
}

type CloudConfig struct {
	// Required
	Input, Output string

	// Optional
	PositionColumns         string
	DensityColumn           int
	BoundBox                string
	Padding                 float64
	RelTolerance            float64
	AbsTolerance            float64
	Format                  string
	AppendName, PrependName string
	LogFile                 string
}

type CloudWrapper struct {
	Cloud CloudConfig
}

func DefaultCloudWrapper() *CloudWrapper {
	con := CloudConfig{}
	con.PositionColumns = "0 1 2"
	con.DensityColumn = 3
	con.Padding = geom.DefaultPadding
	con.RelTolerance = los.DefaultTolerance.Rel
	con.AbsTolerance = los.DefaultTolerance.Abs
	con.Format = "Flat"
	return &CloudWrapper{con}
}

func (con *CloudConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *CloudConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *CloudConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *CloudConfig) ValidBoundBox() bool {
	return con.BoundBox != ""
}
func (con *CloudConfig) ValidPadding() bool {
	return con.Padding >= 0
}
func (con *CloudConfig) ValidTolerance() bool {
	return con.RelTolerance >= 0 && con.AbsTolerance >= 0
}
func (con *CloudConfig) ValidFormat() bool {
	f := strings.ToLower(strings.Trim(con.Format, " "))
	return f == "flat" || f == "header"
}

// HeaderFormat returns true if images are written with io.WriteImage rather
// than io.WriteFlatImage.
func (con *CloudConfig) HeaderFormat() bool {
	return strings.ToLower(strings.Trim(con.Format, " ")) == "header"
}

// Columns returns the columns of x, y, z, and the density in the input file.
func (con *CloudConfig) Columns() ([]int, error) {
	pos, err := parseInts(con.PositionColumns)
	if err != nil {
		return nil, fmt.Errorf("Could not parse PositionColumns: %s", err)
	} else if len(pos) != 3 {
		return nil, fmt.Errorf(
			"PositionColumns must have three elements, but has %d.", len(pos),
		)
	}

	cols := append(pos, con.DensityColumn)
	for _, c := range cols {
		if c < 0 {
			return nil, fmt.Errorf("Column %d is negative.", c)
		}
	}
	return cols, nil
}

// Box parses BoundBox. It returns nil if BoundBox was not set.
func (con *CloudConfig) Box() (*geom.Box, error) {
	if !con.ValidBoundBox() {
		return nil, nil
	}

	xs, err := parseFloats(con.BoundBox)
	if err != nil {
		return nil, fmt.Errorf("Could not parse BoundBox: %s", err)
	} else if len(xs) != 6 {
		return nil, fmt.Errorf(
			"BoundBox must have six elements, but has %d.", len(xs),
		)
	}

	b := &geom.Box{}
	copy(b[:], xs)
	if err := b.Check(); err != nil {
		return nil, err
	}
	return b, nil
}

// Tolerance returns the tolerances used for single-ray checks.
func (con *CloudConfig) Tolerance() los.Tolerance {
	return los.Tolerance{Rel: con.RelTolerance, Abs: con.AbsTolerance}
}

// FrameConfig contains the variables shared by Projection and Slice sections.
type FrameConfig struct {
	// Required
	Extent, Pixels string

	// Optional
	Center           string
	Proj             string
	Yaw, Pitch, Roll float64

	// Optional, "undocumented"
	Name string

	ext    geom.Extent
	res    geom.Resolution
	center *r3.Vec
	att    geom.Attitude
}

// CheckInit parses the frame variables of the section with the given name.
func (frame *FrameConfig) CheckInit(kind, name string) error {
	xs, err := parseFloats(frame.Extent)
	if err != nil {
		return fmt.Errorf("Could not parse Extent of %s '%s': %s", kind, name, err)
	}
	if frame.ext, err = geom.ExtentFromFlat(xs); err != nil {
		return fmt.Errorf("Extent of %s '%s' is invalid: %w", kind, name, err)
	}

	ns, err := parseInts(frame.Pixels)
	if err != nil {
		return fmt.Errorf("Could not parse Pixels of %s '%s': %s", kind, name, err)
	}
	switch len(ns) {
	case 1:
		frame.res = geom.SquareResolution(ns[0])
	case 2:
		frame.res = geom.Resolution{ns[0], ns[1]}
	default:
		return fmt.Errorf(
			"Pixels of %s '%s' must have one or two elements, but has %d.",
			kind, name, len(ns),
		)
	}
	if frame.res[0] <= 0 || frame.res[1] <= 0 {
		return fmt.Errorf(
			"Need to specify positive Pixels for %s '%s'.", kind, name,
		)
	}

	frame.center = nil
	if frame.Center != "" {
		c, err := parseFloats(frame.Center)
		if err != nil {
			return fmt.Errorf(
				"Could not parse Center of %s '%s': %s", kind, name, err,
			)
		} else if len(c) != 3 {
			return fmt.Errorf(
				"Center of %s '%s' must have three elements, but has %d.",
				kind, name, len(c),
			)
		}
		frame.center = &r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}

	proj := strings.ToLower(strings.Trim(frame.Proj, " "))
	angles := frame.Yaw != 0 || frame.Pitch != 0 || frame.Roll != 0
	switch {
	case proj != "" && angles:
		return fmt.Errorf(
			"%s '%s' sets both Proj and angles. Only one may be given.",
			kind, name,
		)
	case proj != "":
		if frame.att, err = geom.AttitudeFromLabel(proj); err != nil {
			return fmt.Errorf(
				"Proj of %s '%s' must be one of [%s]. '%s' is not recognized.",
				kind, name, strings.Join(geom.Labels(), " | "), frame.Proj,
			)
		}
	default:
		frame.att = geom.AttitudeFromAngles(frame.Yaw, frame.Pitch, frame.Roll)
	}

	frame.Name = name
	return nil
}

// ImageExtent returns the parsed image extent. Only valid after CheckInit.
func (frame *FrameConfig) ImageExtent() geom.Extent { return frame.ext }

// Resolution returns the parsed pixel counts. Only valid after CheckInit.
func (frame *FrameConfig) Resolution() geom.Resolution { return frame.res }

// RotationCenter returns the parsed center, or nil if none was set.
func (frame *FrameConfig) RotationCenter() *r3.Vec { return frame.center }

// Attitude returns the parsed orientation. Only valid after CheckInit.
func (frame *FrameConfig) Attitude() geom.Attitude { return frame.att }

type ProjectionConfig struct {
	FrameConfig

	// Required
	Bounds string

	bounds geom.Bounds
}

func (proj *ProjectionConfig) CheckInit(name string) error {
	if err := proj.FrameConfig.CheckInit("Projection", name); err != nil {
		return err
	}

	xs, err := parseFloats(proj.Bounds)
	if err != nil {
		return fmt.Errorf("Could not parse Bounds of Projection '%s': %s", name, err)
	} else if len(xs) != 2 {
		return fmt.Errorf(
			"Bounds of Projection '%s' must have two elements, but has %d.",
			name, len(xs),
		)
	}
	proj.bounds = geom.Bounds{Start: xs[0], End: xs[1]}

	return nil
}

// RayBounds returns the parsed bounds. Only valid after CheckInit.
func (proj *ProjectionConfig) RayBounds() geom.Bounds { return proj.bounds }

type SliceConfig struct {
	FrameConfig

	// Required
	Depth float64
}

func (slice *SliceConfig) CheckInit(name string) error {
	return slice.FrameConfig.CheckInit("Slice", name)
}

type ImagesConfig struct {
	Projection map[string]*ProjectionConfig
	Slice      map[string]*SliceConfig
}

// ReadImagesConfig reads every Projection and Slice section in the given
// file and checks them.
func ReadImagesConfig(fname string) (*ImagesConfig, error) {
	ic := &ImagesConfig{}
	if err := gcfg.ReadFileInto(ic, fname); err != nil {
		return nil, err
	}
	if err := ic.CheckInit(); err != nil {
		return nil, err
	}
	return ic, nil
}

func (ic *ImagesConfig) CheckInit() error {
	for name, proj := range ic.Projection {
		if err := proj.CheckInit(name); err != nil {
			return err
		}
	}
	for name, slice := range ic.Slice {
		if err := slice.CheckInit(name); err != nil {
			return err
		}
	}
	if len(ic.Projection)+len(ic.Slice) == 0 {
		return fmt.Errorf("No Projection or Slice sections were given.")
	}
	return nil
}

// ReadCloudConfig reads the [Cloud] section of the given file.
func ReadCloudConfig(fname string) (*CloudConfig, error) {
	wrap := DefaultCloudWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Cloud
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *CloudConfig) CheckInit() error {
	if !con.ValidInput() {
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	} else if !con.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	} else if !con.ValidPadding() {
		return fmt.Errorf("'Padding' must be non-negative, but is %g.", con.Padding)
	} else if !con.ValidTolerance() {
		return fmt.Errorf("Tolerances must be non-negative.")
	} else if !con.ValidFormat() {
		return fmt.Errorf(
			"'Format' must be one of [Flat | Header]. '%s' is not recognized.",
			con.Format,
		)
	}
	if _, err := con.Columns(); err != nil {
		return err
	}
	if _, err := con.Box(); err != nil {
		return err
	}
	return nil
}
