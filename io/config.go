package io

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gotpc"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

const (
	ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Center of the detector volume.
CenterX = 0
CenterY = 0
CenterZ = 0

# Full width of the detector volume along each axis. Must be positive.
WidthX = 1000
WidthY = 1000
WidthZ = 1000

# Number of cells along each axis. The detector is split into Layers^3 cells.
Layers = 100

# File which the XML event log is written to. Nothing is written if the run
# fails part way through.
Output = path/to/output.xml

#######################
# Optional Parameters #
#######################

# YAML file describing which particles can be blamed for a cell's energy. The
# built-in policy is used if this isn't set. Run with -ExampleConfig Policy to
# see it.
# PolicyFile = path/to/policy.yaml

# What to do with steps outside of the detector volume. Must be one of
# [ Discard | Fatal ]. Discarded steps are counted and logged.
# OutOfBounds = Discard

# Write cell centers snapped to multiples of the cell width, as older output
# files did. This is only correct for detectors centered on the origin with
# an odd number of layers.
# LegacyCenters = false

# Also write cells.csv and particles.csv to this directory.
# CSVDir = path/to/csv/dir

# Write a YAML summary of the run to this file.
# SummaryFile = path/to/summary.yaml

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out
# LogLevel = INFO`
)

type SharedConfig struct {
	// Required
	Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type RunConfig struct {
	SharedConfig

	// Required
	CenterX, CenterY, CenterZ float64
	WidthX, WidthY, WidthZ    float64
	Layers                    int

	// Optional
	PolicyFile    string
	OutOfBounds   string
	LegacyCenters bool
	CSVDir        string
	SummaryFile   string
	LogLevel      string
}

type RunWrapper struct {
	Run RunConfig
}

func DefaultRunWrapper() *RunWrapper {
	con := RunConfig{}
	con.OutOfBounds = "Discard"
	con.LogLevel = "INFO"
	return &RunWrapper{con}
}

func (con *RunConfig) ValidWidths() bool {
	return con.WidthX > 0 && con.WidthY > 0 && con.WidthZ > 0
}
func (con *RunConfig) ValidLayers() bool {
	return con.Layers > 0
}
func (con *RunConfig) ValidOutOfBounds() bool {
	_, err := gotpc.ParseBoundsPolicy(con.OutOfBounds)
	return err == nil
}
func (con *RunConfig) ValidPolicyFile() bool {
	return con.PolicyFile != ""
}
func (con *RunConfig) ValidCSVDir() bool {
	return con.CSVDir != ""
}
func (con *RunConfig) ValidSummaryFile() bool {
	return con.SummaryFile != ""
}
func (con *RunConfig) ValidLogLevel() bool {
	_, err := con.Level()
	return err == nil
}

// CheckInit returns an error describing the first invalid parameter in con.
func (con *RunConfig) CheckInit() error {
	if !con.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	} else if !con.ValidWidths() {
		return fmt.Errorf(
			"WidthX, WidthY, and WidthZ must all be positive, but are "+
				"%g, %g, and %g.", con.WidthX, con.WidthY, con.WidthZ,
		)
	} else if !con.ValidLayers() {
		return fmt.Errorf("Invalid/non-existent 'Layers' value.")
	} else if !con.ValidOutOfBounds() {
		return fmt.Errorf(
			"OutOfBounds must be one of [Discard | Fatal]. '%s' is not "+
				"recognized.", con.OutOfBounds,
		)
	} else if !con.ValidLogLevel() {
		return fmt.Errorf(
			"LogLevel must be one of [DEBUG | INFO | WARN | ERROR]. '%s' is "+
				"not recognized.", con.LogLevel,
		)
	}
	return nil
}

// Grid returns the voxel grid described by con.
func (con *RunConfig) Grid() (*geom.VoxelGrid, error) {
	g, err := geom.NewVoxelGrid(
		geom.Vec{con.CenterX, con.CenterY, con.CenterZ},
		geom.Vec{con.WidthX, con.WidthY, con.WidthZ},
		con.Layers,
	)
	if err != nil {
		return nil, err
	}
	g.LegacyCenters = con.LegacyCenters
	return g, nil
}

// Policy returns the visibility policy named by PolicyFile, or the default
// policy if PolicyFile isn't set.
func (con *RunConfig) Policy() (*mc.Policy, error) {
	if !con.ValidPolicyFile() {
		return mc.DefaultPolicy(), nil
	}
	return mc.LoadPolicy(con.PolicyFile)
}

// BoundsPolicy returns the parsed OutOfBounds value.
func (con *RunConfig) BoundsPolicy() (gotpc.BoundsPolicy, error) {
	return gotpc.ParseBoundsPolicy(con.OutOfBounds)
}

// Level returns the parsed LogLevel value.
func (con *RunConfig) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(con.LogLevel)))
	return level, err
}

// ReadRunConfig reads and checks a [Run] config file.
func ReadRunConfig(fname string) (*RunConfig, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Run.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Run, nil
}

// ParseRunConfig is the same as ReadRunConfig, but reads the config from a
// string.
func ParseRunConfig(str string) (*RunConfig, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadStringInto(wrap, str); err != nil {
		return nil, err
	}
	if err := wrap.Run.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Run, nil
}
