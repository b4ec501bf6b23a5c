package io

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/phil-mansfield/gotpc"
)

// CellRow is a single line of cells.csv.
type CellRow struct {
	Event  int     `csv:"event"`
	ID     int     `csv:"id"`
	MCID   int     `csv:"mc_id"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Z      float64 `csv:"z"`
	Energy float64 `csv:"energy"`
}

// ParticleRow is a single line of particles.csv.
type ParticleRow struct {
	Event     int     `csv:"event"`
	ID        int     `csv:"id"`
	PDG       int     `csv:"pdg"`
	ParentID  int     `csv:"parent_id"`
	Mass      float64 `csv:"mass"`
	Energy    float64 `csv:"energy"`
	StartX    float64 `csv:"start_x"`
	StartY    float64 `csv:"start_y"`
	StartZ    float64 `csv:"start_z"`
	EndX      float64 `csv:"end_x"`
	EndY      float64 `csv:"end_y"`
	EndZ      float64 `csv:"end_z"`
	MomentumX float64 `csv:"momentum_x"`
	MomentumY float64 `csv:"momentum_y"`
	MomentumZ float64 `csv:"momentum_z"`
}

// Rows flattens evs into cell and particle rows, in event order.
func Rows(evs []gotpc.ResolvedEvent) ([]CellRow, []ParticleRow) {
	cells, particles := []CellRow{}, []ParticleRow{}
	for _, ev := range evs {
		for _, c := range ev.Cells {
			cells = append(cells, CellRow{
				Event: ev.Number, ID: c.ID, MCID: c.MCID,
				X: c.Center[0], Y: c.Center[1], Z: c.Center[2],
				Energy: c.Energy,
			})
		}
		for _, p := range ev.Particles {
			particles = append(particles, ParticleRow{
				Event: ev.Number, ID: p.TrackID, PDG: p.PDG, ParentID: p.ParentID,
				Mass: p.Mass, Energy: p.Energy,
				StartX: p.Start[0], StartY: p.Start[1], StartZ: p.Start[2],
				EndX: p.End[0], EndY: p.End[1], EndZ: p.End[2],
				MomentumX: p.Momentum[0], MomentumY: p.Momentum[1],
				MomentumZ: p.Momentum[2],
			})
		}
	}
	return cells, particles
}

// SaveCSV writes cells.csv and particles.csv to dir, creating it if needed.
// Either both files are written or neither is.
func SaveCSV(dir string, evs []gotpc.ResolvedEvent) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	cells, particles := Rows(evs)

	err := writeFiles(
		[]string{
			filepath.Join(dir, "cells.csv"),
			filepath.Join(dir, "particles.csv"),
		},
		[]func(w io.Writer) error{
			func(w io.Writer) error { return gocsv.Marshal(cells, w) },
			func(w io.Writer) error { return gocsv.Marshal(particles, w) },
		},
	)
	if err != nil {
		return fmt.Errorf("writing CSV tables: %w", err)
	}
	return nil
}
