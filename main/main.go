package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path"
	"runtime/pprof"
	"sort"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/gotpc"
	"github.com/phil-mansfield/gotpc/io"
	"github.com/phil-mansfield/gotpc/mc"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil { log.Fatal(err.Error()) }
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
}

func main() {
	var (
		replayStr, plotStr string
		exampleConfig      string
	)
	vars := map[string]*string{
		"Replay":        &replayStr,
		"Plot":          &plotStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&replayStr, "Replay", "",
		"Configuration file for [Replay] mode, along with at least one "+
			"step file.",
	)
	flag.StringVar(
		&plotStr, "Plot", "",
		"XML event log to plot, along with the directory the plots are "+
			"written to.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Run', "+
			"'Policy', and 'Steps'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil { log.Fatal(err.Error()) }

	switch modeName {
	case "Replay":
		con, err := io.ReadRunConfig(replayStr)
		if err != nil { log.Fatal(err.Error()) }

		steps := flag.Args()
		if len(steps) < 1 {
			log.Fatal("Must supply at least one step file.")
		}
		replayMain(con, steps)

	case "Plot":
		args := flag.Args()
		if len(args) != 1 {
			log.Fatal("Must supply exactly one output directory for plots.")
		}
		plotMain(plotStr, args[0])

	case "ExampleConfig":
		switch exampleConfig {
		case "Run":
			fmt.Println(io.ExampleRunFile)
		case "Policy":
			fmt.Print(mc.DefaultPolicyYAML())
		case "Steps":
			fmt.Println(io.ExampleStepFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Run', 'Policy', and 'Steps'.",
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
		if *varPtr != "" { setNames = append(setNames, name) }
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		sort.Strings(setNames)
		return "", fmt.Errorf(
			"The following flags were set: %s, but gotpc only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// replayMain feeds every step file through a single run and writes the
// resulting event log, along with any optional outputs.
func replayMain(con *io.RunConfig, stepFiles []string) {
	fg, logger := setupIO(con)
	defer fg.Close()

	grid, err := con.Grid()
	if err != nil { log.Fatal(err.Error()) }
	pol, err := con.Policy()
	if err != nil { log.Fatal(err.Error()) }
	bounds, err := con.BoundsPolicy()
	if err != nil { log.Fatal(err.Error()) }

	run := gotpc.NewRun(grid, gotpc.RunOptions{
		Predicate: pol, OutOfBounds: bounds, Logger: logger,
	})
	logger.Info("Starting run", "id", run.ID, "segments", grid.Segments,
		"origin", grid.Origin, "extent", grid.Extent)

	for _, fname := range stepFiles {
		evs, err := io.ReadSteps(fname)
		if err != nil { log.Fatal(err.Error()) }
		logger.Info("Replaying step file", "file", fname, "events", len(evs))
		if err = run.Replay(evs); err != nil {
			log.Fatalf("Replay of %s failed: %s", fname, err.Error())
		}
	}

	evs := run.Resolved()

	logger.Info("Writing event log", "file", con.Output, "events", len(evs))
	if err = io.SaveXML(con.Output, evs); err != nil {
		log.Fatal(err.Error())
	}

	if con.ValidCSVDir() {
		logger.Info("Writing CSV tables", "dir", con.CSVDir)
		if err = io.SaveCSV(con.CSVDir, evs); err != nil {
			log.Fatal(err.Error())
		}
	}

	summary := run.Summarize(evs)
	if con.ValidSummaryFile() {
		logger.Info("Writing summary", "file", con.SummaryFile)
		if err = io.SaveSummary(con.SummaryFile, summary); err != nil {
			log.Fatal(err.Error())
		}
	}
	logger.Info("Finished run", "summary", summary)
}

// setupIO opens the log and profile files and builds the run's logger.
func setupIO(con *io.RunConfig) (*FileGroup, *slog.Logger) {
	var err error
	fg := new(FileGroup)

	out := os.Stderr
	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil { log.Fatal(err.Error()) }
		log.SetOutput(fg.log)
		out = fg.log
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil { log.Fatal(err.Error()) }
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil { log.Fatal(err.Error()) }
	}

	level, err := con.Level()
	if err != nil { log.Fatal(err.Error()) }
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))

	return fg, logger
}

// plotMain plots the ranked cell energies of every event in an XML event log.
func plotMain(xmlFile, dir string) {
	evs, err := io.LoadXML(xmlFile)
	if err != nil { log.Fatal(err.Error()) }

	if err = os.MkdirAll(dir, 0777); err != nil {
		log.Fatal(err.Error())
	}

	for i := range evs {
		if len(evs[i].Cells) == 0 { continue }
		plotEvent(&evs[i], dir)
	}

	plt.Execute()
}

// plotEvent plots the energies of an event's cells from largest to smallest.
// Cells attributed to a particle and unresolved cells are drawn separately.
func plotEvent(ev *gotpc.ResolvedEvent, dir string) {
	fname := path.Join(dir, fmt.Sprintf("event_%d.png", ev.Number))

	es := make([]float64, len(ev.Cells))
	for i, c := range ev.Cells { es[i] = c.Energy }
	sort.Sort(sort.Reverse(sort.Float64Slice(es)))

	ranks := make([]float64, len(es))
	for i := range ranks { ranks[i] = float64(i + 1) }

	unresolved, unresolvedRanks := []float64{}, []float64{}
	for _, c := range ev.Cells {
		if c.MCID != gotpc.NoTrack { continue }
		unresolved = append(unresolved, c.Energy)
		unresolvedRanks = append(unresolvedRanks, rankOf(es, c.Energy))
	}

	plt.Figure()
	plt.Plot(ranks, es, "k", plt.LW(2))
	if len(unresolved) > 0 {
		plt.Plot(unresolvedRanks, unresolved, "o", plt.C("r"))
	}

	plt.Title(fmt.Sprintf(
		"Event %d: %d cells, %d unresolved",
		ev.Number, len(ev.Cells), len(unresolved),
	))
	plt.XLabel("Rank", plt.FontSize(16))
	plt.YLabel("Cell energy", plt.FontSize(16))
	plt.YScale("log")
	plt.SaveFig(fname)
}

// rankOf returns the 1-indexed position of e in the descending slice es.
func rankOf(es []float64, e float64) float64 {
	i := sort.Search(len(es), func(i int) bool { return es[i] <= e })
	return float64(i + 1)
}
