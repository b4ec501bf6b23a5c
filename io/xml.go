package io

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/gotpc"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

/*
The XML event log has the following layout. Field names are read by existing
analysis tools and must not change.

    <Run>
        <Event>
            <Cell Id MCId X Y Z Energy/>                         (zero or more)
            <MCParticle Id PDG ParentId Mass Energy
                StartX StartY StartZ EndX EndY EndZ
                MomentumX MomentumY MomentumZ/>                  (zero or more)
        </Event>
    </Run>

Within an event, all Cells come before all MCParticles.
*/

type xmlRun struct {
	XMLName xml.Name   `xml:"Run"`
	Events  []xmlEvent `xml:"Event"`
}

type xmlEvent struct {
	Cells     []xmlCell     `xml:"Cell"`
	Particles []xmlParticle `xml:"MCParticle"`
}

type xmlCell struct {
	Id     int     `xml:"Id,attr"`
	MCId   int     `xml:"MCId,attr"`
	X      float64 `xml:"X,attr"`
	Y      float64 `xml:"Y,attr"`
	Z      float64 `xml:"Z,attr"`
	Energy float64 `xml:"Energy,attr"`
}

type xmlParticle struct {
	Id        int     `xml:"Id,attr"`
	PDG       int     `xml:"PDG,attr"`
	ParentId  int     `xml:"ParentId,attr"`
	Mass      float64 `xml:"Mass,attr"`
	Energy    float64 `xml:"Energy,attr"`
	StartX    float64 `xml:"StartX,attr"`
	StartY    float64 `xml:"StartY,attr"`
	StartZ    float64 `xml:"StartZ,attr"`
	EndX      float64 `xml:"EndX,attr"`
	EndY      float64 `xml:"EndY,attr"`
	EndZ      float64 `xml:"EndZ,attr"`
	MomentumX float64 `xml:"MomentumX,attr"`
	MomentumY float64 `xml:"MomentumY,attr"`
	MomentumZ float64 `xml:"MomentumZ,attr"`
}

func newXMLRun(evs []gotpc.ResolvedEvent) *xmlRun {
	run := &xmlRun{Events: make([]xmlEvent, len(evs))}
	for i, ev := range evs {
		xev := &run.Events[i]
		for _, c := range ev.Cells {
			xev.Cells = append(xev.Cells, xmlCell{
				Id: c.ID, MCId: c.MCID,
				X: c.Center[0], Y: c.Center[1], Z: c.Center[2],
				Energy: c.Energy,
			})
		}
		for _, p := range ev.Particles {
			xev.Particles = append(xev.Particles, xmlParticle{
				Id: p.TrackID, PDG: p.PDG, ParentId: p.ParentID,
				Mass: p.Mass, Energy: p.Energy,
				StartX: p.Start[0], StartY: p.Start[1], StartZ: p.Start[2],
				EndX: p.End[0], EndY: p.End[1], EndZ: p.End[2],
				MomentumX: p.Momentum[0], MomentumY: p.Momentum[1],
				MomentumZ: p.Momentum[2],
			})
		}
	}
	return run
}

// WriteXML writes the XML event log for evs to w.
func WriteXML(w io.Writer, evs []gotpc.ResolvedEvent) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(newXMLRun(evs)); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// SaveXML writes the XML event log for evs to the given file. If anything
// goes wrong, no file is left behind.
func SaveXML(fname string, evs []gotpc.ResolvedEvent) error {
	err := writeFile(fname, func(w io.Writer) error {
		return WriteXML(w, evs)
	})
	if err != nil {
		return fmt.Errorf("Could not write XML event log: %w", err)
	}
	return nil
}

// ReadXML reads an XML event log.
func ReadXML(r io.Reader) ([]gotpc.ResolvedEvent, error) {
	run := &xmlRun{}
	if err := xml.NewDecoder(r).Decode(run); err != nil {
		return nil, err
	}

	evs := make([]gotpc.ResolvedEvent, len(run.Events))
	for i, xev := range run.Events {
		ev := &evs[i]
		ev.Number = i
		ev.Cells = make([]gotpc.ResolvedCell, len(xev.Cells))
		for j, c := range xev.Cells {
			ev.Cells[j] = gotpc.ResolvedCell{
				ID: c.Id, MCID: c.MCId,
				Center: geom.Vec{c.X, c.Y, c.Z}, Energy: c.Energy,
			}
		}
		ev.Particles = make([]mc.Particle, len(xev.Particles))
		for j, p := range xev.Particles {
			ev.Particles[j] = mc.Particle{
				TrackID: p.Id, PDG: p.PDG, ParentID: p.ParentId,
				Mass: p.Mass, Energy: p.Energy,
				Start:    geom.Vec{p.StartX, p.StartY, p.StartZ},
				End:      geom.Vec{p.EndX, p.EndY, p.EndZ},
				Momentum: geom.Vec{p.MomentumX, p.MomentumY, p.MomentumZ},
			}
		}
	}
	return evs, nil
}

// LoadXML reads the XML event log in the given file.
func LoadXML(fname string) ([]gotpc.ResolvedEvent, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	evs, err := ReadXML(f)
	if err != nil {
		return nil, fmt.Errorf("Could not parse %s: %w", fname, err)
	}
	return evs, nil
}
