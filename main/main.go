package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/phil-mansfield/vortrace"
	"github.com/phil-mansfield/vortrace/geom"
	"github.com/phil-mansfield/vortrace/io"
)

func main() {
	var (
		project, exampleConfig string
		threads                int
	)
	vars := map[string]*string{
		"Project":       &project,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&threads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&project, "Project", "",
		"Configuration file for [Cloud] mode, along with at least one "+
			"image file that gives Projection or Slice sections.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Cloud', "+
			"'Projection', and 'Slice'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Project":
		con, err := io.ReadCloudConfig(project)
		if err != nil {
			log.Fatal(err.Error())
		}

		images := flag.Args()
		if len(images) < 1 {
			log.Fatal("Must supply at least one image file.")
		} else if threads < 1 {
			log.Fatal("'Threads' must be positive.")
		}

		if err := runProject(con, images, threads); err != nil {
			log.Fatal(err.Error())
		}

	case "ExampleConfig":
		switch exampleConfig {
		case "Cloud":
			fmt.Println(io.ExampleCloudFile)
		case "Projection":
			fmt.Println(io.ExampleProjectionFile)
		case "Slice":
			fmt.Println(io.ExampleSliceFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Cloud', 'Projection', and 'Slice'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		sort.Strings(setNames)
		return "", fmt.Errorf(
			"The following flags were set: %s, but vortrace "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// runProject runs projectMain with logging sent to con.LogFile, if it is set.
// The log file is closed and the previous log output restored before
// returning, so errors can be reported with log.Fatal afterwards.
func runProject(con *io.CloudConfig, images []string, threads int) error {
	if !con.ValidLogFile() {
		return projectMain(con, images, threads)
	}

	f, err := os.Create(con.LogFile)
	if err != nil {
		return err
	}
	prev := log.Writer()
	log.SetOutput(f)

	err = projectMain(con, images, threads)
	if err != nil {
		log.Printf("Error: %s", err.Error())
	}

	log.SetOutput(prev)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// projectMain loads the point cloud described by con and renders every image
// in the given image files.
func projectMain(con *io.CloudConfig, images []string, threads int) error {
	cols, err := con.Columns()
	if err != nil {
		return err
	}
	box, err := con.Box()
	if err != nil {
		return err
	}

	log.Printf("Reading points from %s", con.Input)
	pos, rho, err := io.ReadPoints(con.Input, cols)
	if err != nil {
		return err
	}

	vc := vortrace.DefaultConfig()
	vc.Padding = con.Padding
	vc.Tol = con.Tolerance()
	vc.Workers = threads
	vc.Logger = log.New(log.Writer(), "", log.LstdFlags)

	pc, err := vortrace.New(pos, rho, box, vc)
	if err != nil {
		return err
	}
	log.Printf("Built mesh over %d of %d points.", pc.Len(), len(pos))

	if err = os.MkdirAll(con.Output, 0777); err != nil {
		return err
	}

	for _, fname := range images {
		ic, err := io.ReadImagesConfig(fname)
		if err != nil {
			return err
		}

		for _, name := range sortedKeys(ic.Projection) {
			proj := ic.Projection[name]
			img, err := pc.GridProjection(
				proj.ImageExtent(), proj.Resolution(), proj.RayBounds(),
				proj.RotationCenter(), proj.Attitude(),
			)
			if err != nil {
				return fmt.Errorf("Projection '%s': %w", name, err)
			}
			frame := io.NewFrameInfo(
				proj.ImageExtent(), proj.Resolution(), proj.RayBounds(),
				proj.RotationCenter(), proj.Attitude(),
			)
			if err := writeImage(con, name, io.Projection, img, frame); err != nil {
				return err
			}
		}

		for _, name := range sortedKeys(ic.Slice) {
			slice := ic.Slice[name]
			img, err := pc.GridSlice(
				slice.ImageExtent(), slice.Resolution(), slice.Depth,
				slice.RotationCenter(), slice.Attitude(),
			)
			if err != nil {
				return fmt.Errorf("Slice '%s': %w", name, err)
			}
			frame := io.NewFrameInfo(
				slice.ImageExtent(), slice.Resolution(),
				geom.Bounds{Start: slice.Depth, End: slice.Depth},
				slice.RotationCenter(), slice.Attitude(),
			)
			if err := writeImage(con, name, io.Slice, img, frame); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeImage writes img to the output directory under the name of its
// section.
func writeImage(
	con *io.CloudConfig, name string, flag io.ImageFlag,
	img [][]float64, frame io.FrameInfo,
) error {
	out := path.Join(
		con.Output, fmt.Sprintf("%s%s%s.proj", con.PrependName, name, con.AppendName),
	)
	log.Printf("Writing %s '%s' to %s", flag, name, out)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if con.HeaderFormat() {
		err = io.WriteImage(flag, img, frame, f)
	} else {
		err = io.WriteFlatImage(img, f)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
