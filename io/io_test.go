package io

import (
	"bytes"
	"errors"
	stdio "io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phil-mansfield/gotpc"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

func exampleEvents() []gotpc.ResolvedEvent {
	return []gotpc.ResolvedEvent{
		{
			Number: 0,
			Cells: []gotpc.ResolvedCell{
				{ID: 7, MCID: 1, Center: geom.Vec{2.5, 2.5, 2.5}, Energy: 2},
				{ID: 0, MCID: 0, Center: geom.Vec{-2.5, -2.5, -2.5}, Energy: 0.5},
			},
			Particles: []mc.Particle{{
				TrackID: 1, PDG: 13, Mass: 105.7, Energy: 500,
				End: geom.Vec{4, 4, 4}, Momentum: geom.Vec{0, 0, 488.7},
			}},
		},
		{
			Number: 1,
			Cells: []gotpc.ResolvedCell{
				{ID: 3, MCID: 2, Center: geom.Vec{2.5, 2.5, -2.5}, Energy: 9},
			},
			Particles: []mc.Particle{
				{TrackID: 2, PDG: 2212, Mass: 938.3, Energy: 1200},
				{TrackID: 4, ParentID: 2, PDG: 22, Energy: 3},
			},
		},
	}
}

func TestParseRunConfig(t *testing.T) {
	con, err := ParseRunConfig(ExampleRunFile)
	require.NoError(t, err)

	assert.Equal(t, "path/to/output.xml", con.Output)
	assert.Equal(t, 100, con.Layers)
	assert.Equal(t, 1000.0, con.WidthY)
	assert.False(t, con.ValidCSVDir())
	assert.False(t, con.ValidPolicyFile())

	bp, err := con.BoundsPolicy()
	require.NoError(t, err)
	assert.Equal(t, gotpc.Discard, bp)

	g, err := con.Grid()
	require.NoError(t, err)
	assert.Equal(t, 100, g.Segments)
	assert.Equal(t, geom.Vec{-500, -500, -500}, g.Low())

	pol, err := con.Policy()
	require.NoError(t, err)
	assert.True(t, pol.Visible(&mc.Particle{PDG: 13, Mass: 105.7, Energy: 500}))
}

func TestParseRunConfigOptional(t *testing.T) {
	con, err := ParseRunConfig(`[Run]
CenterX = 5
WidthX = 10
WidthY = 10
WidthZ = 10
Layers = 2
Output = out.xml
OutOfBounds = fatal
LegacyCenters = true
CSVDir = csv
LogLevel = debug`)
	require.NoError(t, err)

	bp, err := con.BoundsPolicy()
	require.NoError(t, err)
	assert.Equal(t, gotpc.Fatal, bp)
	assert.True(t, con.ValidCSVDir())

	level, err := con.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	g, err := con.Grid()
	require.NoError(t, err)
	assert.True(t, g.LegacyCenters)
	assert.Equal(t, geom.Vec{0, -5, -5}, g.Low())
}

func TestParseRunConfigInvalid(t *testing.T) {
	base := "[Run]\nWidthX = 10\nWidthY = 10\nWidthZ = 10\n"
	table := []struct {
		name, body string
	}{
		{"no output", base + "Layers = 2\n"},
		{"no layers", base + "Output = out.xml\n"},
		{"zero width", "[Run]\nWidthX = 10\nWidthY = 0\nWidthZ = 10\nLayers = 2\nOutput = o\n"},
		{"bad bounds", base + "Layers = 2\nOutput = o\nOutOfBounds = Clamp\n"},
		{"bad level", base + "Layers = 2\nOutput = o\nLogLevel = LOUD\n"},
		{"unknown key", base + "Layers = 2\nOutput = o\nPixels = 3\n"},
	}

	for _, test := range table {
		_, err := ParseRunConfig(test.body)
		assert.Error(t, err, test.name)
	}
}

func TestReadSteps(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "steps.txt")
	require.NoError(t, os.WriteFile(fname, []byte(ExampleStepFile+"\n"), 0644))

	evs, err := ReadSteps(fname)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	ev := evs[0]
	assert.Equal(t, 0, ev.Number)
	require.Len(t, ev.Steps, 3)

	s := ev.Steps[0]
	assert.Equal(t, geom.Vec{3, 3, 3}, s.Position)
	assert.Equal(t, 2.0, s.Energy)
	require.NotNil(t, s.Particle)
	assert.Equal(t, 13, s.Particle.PDG)
	assert.Equal(t, geom.Vec{4, 4, 4}, s.Particle.End)

	require.NotNil(t, ev.Steps[1].Particle)
	assert.Equal(t, 1, ev.Steps[1].Particle.ParentID)
	assert.Nil(t, ev.Steps[2].Particle, "second step of track 1")

	require.Len(t, evs[1].Steps, 1)
	require.NotNil(t, evs[1].Steps[0].Particle)
	assert.Equal(t, 2212, evs[1].Steps[0].Particle.PDG)
}

func TestReadStepsMissing(t *testing.T) {
	_, err := ReadSteps(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

// columns builds a column-major table out of rows of step table values.
func columns(rows ...[]float64) [][]float64 {
	cols := make([][]float64, StepColumns)
	for _, row := range rows {
		full := make([]float64, StepColumns)
		copy(full, row)
		for i := range cols {
			cols[i] = append(cols[i], full[i])
		}
	}
	return cols
}

func TestStepsFromColumns(t *testing.T) {
	evs, err := stepsFromColumns(columns(
		[]float64{0, 1},
		[]float64{2, 1},
		[]float64{2, 1},
	))
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Len(t, evs[0].Steps, 1)
	assert.Empty(t, evs[1].Steps)
	assert.Equal(t, 1, evs[1].Number)
	require.Len(t, evs[2].Steps, 2)

	// Track 1 starts over in every event.
	assert.NotNil(t, evs[2].Steps[0].Particle)
	assert.Nil(t, evs[2].Steps[1].Particle)

	_, err = stepsFromColumns(columns([]float64{1, 1}, []float64{0, 1}))
	assert.Error(t, err, "decreasing event number")

	_, err = stepsFromColumns(columns([]float64{-1, 1}))
	assert.Error(t, err, "negative event number")

	_, err = stepsFromColumns(make([][]float64, 4))
	assert.Error(t, err, "too few columns")
}

func TestWriteXML(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXML(buf, exampleEvents()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<Run>"))
	assert.True(t, strings.HasSuffix(out, "</Run>\n"))
	assert.Equal(t, 2, strings.Count(out, "<Event>"))
	assert.Contains(t, out,
		`<Cell Id="7" MCId="1" X="2.5" Y="2.5" Z="2.5" Energy="2"></Cell>`)
	assert.Contains(t, out, `<MCParticle Id="4" PDG="22" ParentId="2"`)

	// Within the first event, every cell precedes every particle.
	first := out[:strings.Index(out, "</Event>")]
	assert.Less(t,
		strings.LastIndex(first, "<Cell"), strings.Index(first, "<MCParticle"))
}

func TestWriteXMLEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXML(buf, nil))
	assert.Equal(t, "<Run></Run>\n", buf.String())
}

func TestReadXML(t *testing.T) {
	buf := &bytes.Buffer{}
	evs := exampleEvents()
	require.NoError(t, WriteXML(buf, evs))

	read, err := ReadXML(buf)
	require.NoError(t, err)
	assert.Equal(t, evs, read)
}

func TestSaveXML(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "run.xml")
	require.NoError(t, SaveXML(fname, exampleEvents()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")

	info, err := os.Stat(fname)
	require.NoError(t, err)
	assert.Equal(t, OutputMode, info.Mode().Perm())

	read, err := LoadXML(fname)
	require.NoError(t, err)
	assert.Len(t, read, 2)
}

func TestSaveXMLUnwritable(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "missing", "run.xml")
	assert.Error(t, SaveXML(fname, exampleEvents()))

	_, err := os.Stat(fname)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	require.NoError(t, SaveCSV(dir, exampleEvents()))

	data, err := os.ReadFile(filepath.Join(dir, "cells.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "event,id,mc_id,x,y,z,energy\n"))

	cells := []CellRow{}
	require.NoError(t, gocsv.UnmarshalBytes(data, &cells))
	require.Len(t, cells, 3)
	assert.Equal(t, CellRow{Event: 1, ID: 3, MCID: 2, X: 2.5, Y: 2.5, Z: -2.5, Energy: 9}, cells[2])

	f, err := os.Open(filepath.Join(dir, "particles.csv"))
	require.NoError(t, err)
	defer f.Close()

	particles := []ParticleRow{}
	require.NoError(t, gocsv.UnmarshalFile(f, &particles))
	require.Len(t, particles, 3)
	assert.Equal(t, 0, particles[0].Event)
	assert.Equal(t, 488.7, particles[0].MomentumZ)
	assert.Equal(t, 2, particles[2].ParentID)
}

func TestSaveCSVAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	// particles.csv can't be renamed over a directory.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "particles.csv"), 0755))

	assert.Error(t, SaveCSV(dir, exampleEvents()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "particles.csv", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestWriteFilesFailure(t *testing.T) {
	dir := t.TempDir()
	fnames := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	fns := []func(w stdio.Writer) error{
		func(w stdio.Writer) error { _, err := stdio.WriteString(w, "a"); return err },
		func(w stdio.Writer) error { return errors.New("no data") },
	}

	assert.Error(t, writeFiles(fnames, fns))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSummaryRoundTrip(t *testing.T) {
	s := &gotpc.Summary{
		RunID:     "4b7f7c1e-05a4-4f4e-9d0b-1f1f2d6f0b1a",
		Segments:  2,
		Origin:    [3]float64{0, 0, 0},
		Extent:    [3]float64{10, 10, 10},
		Events:    1,
		Discarded: 3,
		Energy:    2.5,
		PerEvent: []gotpc.EventSummary{{
			Event: 0, Cells: 2, Particles: 1, Primaries: 1, Discarded: 3,
			Unresolved: 1,
			Energy: 2.5, MaxEnergy: 2, MeanEnergy: 1.25,
		}},
	}

	fname := filepath.Join(t.TempDir(), "summary.yaml")
	require.NoError(t, SaveSummary(fname, s))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	read := &gotpc.Summary{}
	require.NoError(t, yaml.Unmarshal(data, read))
	assert.Equal(t, s, read)
}
