package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/shatter/internal/batch"
	"github.com/san-kum/shatter/internal/config"
	"github.com/san-kum/shatter/internal/debugws"
	"github.com/san-kum/shatter/internal/export"
	"github.com/san-kum/shatter/internal/metrics"
	"github.com/san-kum/shatter/internal/scenario"
	"github.com/san-kum/shatter/internal/storage"
	"github.com/san-kum/shatter/internal/viz"
	"github.com/san-kum/shatter/internal/world"
)

var (
	dataDir    string
	configFile string
	preset     string

	stepDt      float64
	duration    float64
	seed        int64
	restitution float64
	friction    float64
	stiffness   float64
	breakRatio  float64
	restPolicy  string

	frameRate  int
	sampleEvry int
	wsAddr     string

	sweepRuns int
	svgView   string
	svgOut    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shatter",
		Short: "rigid-body fracture and collision sandbox",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".shatter", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario headless and record it",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvry, "sample-every", 6, "record every n-th tick")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	serveCmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "stream snapshots of a running scenario over websocket",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&wsAddr, "addr", "localhost:8787", "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "dump recorded transforms to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render recorded trajectories as an svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgView, "view", "height", "projection: height or top")
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output file (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario across many seeds in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 8, "number of seeds")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, sweepCmd, listCmd, plotCmd, exportCSVCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&stepDt, "dt", config.DefaultStepDt, "physics timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().Float64Var(&restitution, "restitution", 0.0, "contact restitution")
	cmd.Flags().Float64Var(&friction, "friction", 0.8, "contact friction")
	cmd.Flags().Float64Var(&stiffness, "stiffness", 1200, "bond stiffness")
	cmd.Flags().Float64Var(&breakRatio, "break-threshold", 0.25, "bond break ratio")
	cmd.Flags().StringVar(&restPolicy, "resting", "track", "resting policy: track or damped")
}

// resolveConfig merges preset, config file, and CLI flags, in rising
// precedence, the same way run flags work in the rest of the tool.
func resolveConfig(cmd *cobra.Command, scenarioName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(scenarioName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenarioName))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Scenario = scenarioName
	if cmd.Flags().Changed("dt") {
		cfg.StepDt = stepDt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("restitution") {
		cfg.Restitution = restitution
	}
	if cmd.Flags().Changed("friction") {
		cfg.Friction = friction
	}
	if cmd.Flags().Changed("stiffness") {
		cfg.Bond.Stiffness = stiffness
	}
	if cmd.Flags().Changed("break-threshold") {
		cfg.Bond.BreakThreshold = breakRatio
	}
	if cmd.Flags().Changed("resting") {
		cfg.RestingPolicy = restPolicy
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildWorld(cfg *config.Config) (*world.World, error) {
	build, err := scenario.Get(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	return build(cfg.WorldConfig(), cfg.Seed), nil
}

// rebuildWorld returns a fresh world for cfg, or the current one when
// the rebuild fails. The scenario was validated before the first build,
// so a failure here means the config was mutated mid-session.
func rebuildWorld(cfg *config.Config, current *world.World) *world.World {
	fresh, err := buildWorld(cfg)
	if err != nil {
		return current
	}
	return fresh
}

// frameCapacity sizes the recording buffer. Sampling can be disabled
// with a non-positive interval, in which case nothing is recorded.
func frameCapacity(ticks, every int) int {
	if every <= 0 {
		return 0
	}
	return ticks / every * 8
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	w, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	mset := metrics.Defaults()
	for _, m := range mset {
		m.Reset()
	}

	ticks := int(cfg.Duration / cfg.StepDt)
	frames := make([]storage.Frame, 0, frameCapacity(ticks, sampleEvry))

	fmt.Printf("running %s scenario...\n", cfg.Scenario)
	start := time.Now()

	for i := 0; i < ticks; i++ {
		w.Step()
		for _, m := range mset {
			m.Observe(w)
		}
		if sampleEvry > 0 && i%sampleEvry == 0 {
			snap := w.Snapshot()
			for _, bs := range snap.Bodies {
				frames = append(frames, storage.Frame{
					Tick: int(snap.Tick), Time: snap.Time, Body: bs.Index,
					X: bs.Position.X(), Y: bs.Position.Y(), Z: bs.Position.Z(),
					Speed: bs.Velocity.Len(), State: bs.State,
				})
			}
		}
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Scenario: cfg.Scenario,
		Seed:     cfg.Seed,
		StepDt:   cfg.StepDt,
		Duration: cfg.Duration,
		Ticks:    ticks,
		Metrics:  make(map[string]float64),
	}
	for _, m := range mset {
		meta.Metrics[m.Name()] = m.Value()
	}

	runID, err := st.Save(meta, frames)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d ticks in %v\n", ticks, elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("bodies: %d, live bonds: %d, resting: %d\n",
		w.LiveCount(), w.LiveBonds(), w.RestingCount())
	fmt.Println("\nmetrics:")
	for _, m := range mset {
		fmt.Printf("  %s: %.6f\n", m.Name(), m.Value())
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	w, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	rebuild := func() *world.World {
		return rebuildWorld(cfg, w)
	}

	m := viz.NewModel(w, rebuild, cfg.Scenario, frameRate)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	w, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := debugws.NewServer(w, debugws.DefaultUpdateInterval)
	return srv.ListenAndServe(ctx, wsAddr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.StepDt,
			run.Seed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	// Aggregate per tick: mean height and mean speed across bodies.
	type bucket struct {
		y, speed float64
		n        int
	}
	byTick := make(map[int]*bucket)
	order := make([]int, 0)
	for _, f := range frames {
		b, ok := byTick[f.Tick]
		if !ok {
			b = &bucket{}
			byTick[f.Tick] = b
			order = append(order, f.Tick)
		}
		b.y += f.Y
		b.speed += f.Speed
		b.n++
	}

	height := make([]float64, 0, len(order))
	speed := make([]float64, 0, len(order))
	for _, tick := range order {
		b := byTick[tick]
		height = append(height, b.y/float64(b.n))
		speed = append(speed, b.speed/float64(b.n))
	}

	fmt.Println(asciigraph.Plot(height,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean body height"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(speed,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean body speed"),
	))

	fmt.Println("\nmetrics:")
	for name, val := range meta.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	build, err := scenario.Get(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s across %d seeds...\n", cfg.Scenario, sweepRuns)
	start := time.Now()

	sweep := batch.NewSweep(build, cfg.WorldConfig(), cfg.Duration, cfg.Seed, sweepRuns)
	runs, err := sweep.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tMOMENTUM_DRIFT\tKINETIC_MEAN\tLIVE_BONDS\tREST_FRACTION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%.6f\t%.4f\t%.0f\t%.3f\n",
			r.Seed,
			r.Metrics["momentum_drift"],
			r.Metrics["kinetic_energy_mean"],
			r.Metrics["live_bonds"],
			r.Metrics["rest_fraction"],
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Println("\naggregate (mean / min / max):")
	agg := batch.Aggregate(runs)
	names := make([]string, 0, len(agg))
	for name := range agg {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := agg[name]
		fmt.Printf("  %s: %.6f / %.6f / %.6f\n", name, s.Mean, s.Min, s.Max)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	var doc string
	switch svgView {
	case "height":
		doc = export.HeightSVG(frames, 960, 480)
	case "top":
		doc = export.TopDownSVG(frames, 720, 720)
	default:
		return fmt.Errorf("unknown view: %s (want height or top)", svgView)
	}

	if svgOut == "" {
		fmt.Println(doc)
		return nil
	}
	return os.WriteFile(svgOut, []byte(doc), 0644)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"tick", "time", "body", "x", "y", "z", "speed", "state"}); err != nil {
		return err
	}
	for _, f := range frames {
		row := []string{
			strconv.Itoa(f.Tick),
			strconv.FormatFloat(f.Time, 'f', 6, 64),
			strconv.Itoa(f.Body),
			strconv.FormatFloat(f.X, 'f', 6, 64),
			strconv.FormatFloat(f.Y, 'f', 6, 64),
			strconv.FormatFloat(f.Z, 'f', 6, 64),
			strconv.FormatFloat(f.Speed, 'f', 6, 64),
			f.State,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
