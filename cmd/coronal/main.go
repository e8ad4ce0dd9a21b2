package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"coronal/internal/analysis"
	"coronal/internal/cache"
	"coronal/internal/config"
	"coronal/internal/integrate"
	"coronal/internal/plasma"
	"coronal/internal/rates"
	"coronal/internal/scan"
	"coronal/internal/species"
	"coronal/internal/store"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	method     string
	tolerance  float64
	maxEvals   int
	te         float64
	ne         float64
	refuelRate float64
	density    float64
	gridStart  float64
	gridEnd    float64
	gridPoints int
	outFile    string

	// Sweep axes
	teMin    float64
	teMax    float64
	tePoints int
	neMin    float64
	neMax    float64
	nePoints int
	carry    bool

	cacheBackend string
	cachePath    string
	recompute    bool

	samples int
	workers int
	seed    int64
	param   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coronal",
		Short: "impurity ionization-stage evolution in a fixed plasma background",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "preset configuration (group/name)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log progress to stderr")

	runCmd := &cobra.Command{
		Use:   "run [species]",
		Short: "integrate the stage populations through time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIntegration,
	}
	runCmd.Flags().StringVar(&method, "method", config.DefaultMethod, "step method (rosenbrock, rk45)")
	runCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "relative error tolerance")
	runCmd.Flags().IntVar(&maxEvals, "max-evals", config.DefaultMaxEvals, "evaluation budget per run")
	runCmd.Flags().Float64Var(&te, "te", config.DefaultTe, "electron temperature (eV)")
	runCmd.Flags().Float64Var(&ne, "ne", config.DefaultNe, "electron density (m^-3)")
	runCmd.Flags().Float64Var(&refuelRate, "refuel", 0, "refuelling rate (1/s)")
	runCmd.Flags().Float64Var(&density, "density", config.DefaultDensity, "initial ground-state density (m^-3)")
	runCmd.Flags().Float64Var(&gridStart, "t-start", config.DefaultGridStart, "first output time (s)")
	runCmd.Flags().Float64Var(&gridEnd, "t-end", config.DefaultGridEnd, "last output time (s)")
	runCmd.Flags().IntVar(&gridPoints, "points", config.DefaultGridCount, "output grid resolution")
	runCmd.Flags().StringVar(&outFile, "out", "", "also export the run as JSON")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "sweep plasma conditions and collect terminal results",
	}
	scanCmd.PersistentFlags().StringVar(&method, "method", config.DefaultMethod, "step method (rosenbrock, rk45)")
	scanCmd.PersistentFlags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "relative error tolerance")
	scanCmd.PersistentFlags().IntVar(&maxEvals, "max-evals", config.DefaultMaxEvals, "evaluation budget per run")
	scanCmd.PersistentFlags().Float64Var(&density, "density", config.DefaultDensity, "initial ground-state density (m^-3)")
	scanCmd.PersistentFlags().Float64Var(&gridStart, "t-start", config.DefaultGridStart, "first output time (s)")
	scanCmd.PersistentFlags().Float64Var(&gridEnd, "t-end", config.DefaultGridEnd, "last output time (s)")
	scanCmd.PersistentFlags().IntVar(&gridPoints, "points", config.DefaultGridCount, "output grid resolution")
	scanCmd.PersistentFlags().StringVar(&outFile, "out", "", "output file (default stdout)")
	scanCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "cache backend (sqlite, memory, none)")
	scanCmd.PersistentFlags().StringVar(&cachePath, "cache-path", "", "sqlite cache location")
	scanCmd.PersistentFlags().BoolVar(&recompute, "recompute", false, "ignore cached results")

	scanTeCmd := &cobra.Command{
		Use:   "te [species]",
		Short: "sweep electron temperature at fixed density",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanTemperature,
	}
	scanTeCmd.Flags().Float64Var(&teMin, "te-min", math.Pow(10, -0.69), "lowest temperature (eV)")
	scanTeCmd.Flags().Float64Var(&teMax, "te-max", math.Pow(10, 3.99), "highest temperature (eV)")
	scanTeCmd.Flags().IntVar(&tePoints, "te-points", 100, "temperature axis resolution")
	scanTeCmd.Flags().Float64Var(&ne, "ne", 1e19, "fixed electron density (m^-3)")
	scanTeCmd.Flags().BoolVar(&carry, "carry", false, "seed each run with the previous terminal state")

	scanNeCmd := &cobra.Command{
		Use:   "ne [species]",
		Short: "sweep electron density at fixed temperature",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanDensity,
	}
	scanNeCmd.Flags().Float64Var(&neMin, "ne-min", math.Pow(10, 13.7), "lowest density (m^-3)")
	scanNeCmd.Flags().Float64Var(&neMax, "ne-max", math.Pow(10, 21.3), "highest density (m^-3)")
	scanNeCmd.Flags().IntVar(&nePoints, "ne-points", 100, "density axis resolution")
	scanNeCmd.Flags().Float64Var(&te, "te", scan.DefaultTeConst, "fixed electron temperature (eV)")

	scanGridCmd := &cobra.Command{
		Use:   "te-ne [species]",
		Short: "sweep a nested temperature by density grid",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanTempDensity,
	}
	scanGridCmd.Flags().Float64Var(&teMin, "te-min", math.Pow(10, -0.69), "lowest temperature (eV)")
	scanGridCmd.Flags().Float64Var(&teMax, "te-max", math.Pow(10, 3.99), "highest temperature (eV)")
	scanGridCmd.Flags().IntVar(&tePoints, "te-points", 100, "temperature axis resolution")
	scanGridCmd.Flags().Float64Var(&neMin, "ne-min", math.Pow(10, 13.7), "lowest density (m^-3)")
	scanGridCmd.Flags().Float64Var(&neMax, "ne-max", math.Pow(10, 21.3), "highest density (m^-3)")
	scanGridCmd.Flags().IntVar(&nePoints, "ne-points", 100, "density axis resolution")
	scanGridCmd.Flags().Float64Var(&refuelRate, "refuel", 0, "refuelling rate (1/s)")

	scanCmd.AddCommand(scanTeCmd, scanNeCmd, scanGridCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "probe solution robustness with randomized ensembles",
	}
	analyzeCmd.PersistentFlags().StringVar(&method, "method", config.DefaultMethod, "step method (rosenbrock, rk45)")
	analyzeCmd.PersistentFlags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "relative error tolerance")
	analyzeCmd.PersistentFlags().Float64Var(&te, "te", scan.DefaultTeConst, "electron temperature (eV)")
	analyzeCmd.PersistentFlags().Float64Var(&ne, "ne", 1e19, "electron density (m^-3)")
	analyzeCmd.PersistentFlags().IntVar(&samples, "samples", config.DefaultSamples, "ensemble size")
	analyzeCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent runs (default CPU count)")
	analyzeCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "random seed")
	analyzeCmd.PersistentFlags().StringVar(&outFile, "out", "", "output file (default stdout)")
	analyzeCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "cache backend (sqlite, memory, none)")
	analyzeCmd.PersistentFlags().StringVar(&cachePath, "cache-path", "", "sqlite cache location")
	analyzeCmd.PersistentFlags().BoolVar(&recompute, "recompute", false, "ignore cached results")

	spreadCmd := &cobra.Command{
		Use:   "spread [species]",
		Short: "equilibrium spread across random initial states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeSpread,
	}

	propagationCmd := &cobra.Command{
		Use:   "propagation [species]",
		Short: "propagate measurement error on te or ne",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzePropagation,
	}
	propagationCmd.Flags().StringVar(&param, "param", "te", "perturbed parameter (te, ne)")

	resolutionCmd := &cobra.Command{
		Use:   "resolution [species]",
		Short: "terminal error against output grid resolution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeResolution,
	}

	startTimeCmd := &cobra.Command{
		Use:   "start-time [species]",
		Short: "terminal error against the first output time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeStartTime,
	}

	analyzeCmd.AddCommand(spreadCmd, propagationCmd, resolutionCmd, startTimeCmd)

	speciesCmd := &cobra.Command{
		Use:   "species",
		Short: "list supported impurity species",
		RunE:  listSpecies,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println("preset groups:")
				for _, group := range config.PresetGroups() {
					fmt.Printf("  %s\n", group)
				}
				return nil
			}
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for group: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, scanCmd, analyzeCmd, speciesCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file and changed CLI flags over the
// defaults. An optional positional argument names the species.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name (groups: %v)", config.PresetGroups())
		}
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(group))
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

	if len(args) > 0 {
		cfg.Species = args[0]
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = method
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-evals") {
		cfg.MaxEvals = maxEvals
	}
	if cmd.Flags().Changed("te") {
		cfg.Te = te
	}
	if cmd.Flags().Changed("ne") {
		cfg.Ne = ne
	}
	if cmd.Flags().Changed("refuel") {
		cfg.RefuelRate = refuelRate
	}
	if cmd.Flags().Changed("density") {
		cfg.Density = density
	}
	if cmd.Flags().Changed("t-start") {
		cfg.Grid.Start = gridStart
	}
	if cmd.Flags().Changed("t-end") {
		cfg.Grid.End = gridEnd
	}
	if cmd.Flags().Changed("points") {
		cfg.Grid.Points = gridPoints
	}
	if cmd.Flags().Changed("samples") {
		cfg.Ensemble.Samples = samples
	}
	if cmd.Flags().Changed("workers") {
		cfg.Ensemble.Workers = workers
	}
	if cmd.Flags().Changed("seed") {
		cfg.Ensemble.Seed = seed
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Backend = cacheBackend
	}
	if cmd.Flags().Changed("cache-path") {
		cfg.Cache.Path = cachePath
	}
	if cmd.Flags().Changed("data") {
		cfg.Store.Dir = dataDir
	}

	if cfg.Grid.Points < 2 {
		return nil, fmt.Errorf("time grid needs at least 2 points, got %d", cfg.Grid.Points)
	}
	if cfg.Grid.Start <= 0 || cfg.Grid.End <= cfg.Grid.Start {
		return nil, fmt.Errorf("time grid must satisfy 0 < start < end, got [%g, %g]",
			cfg.Grid.Start, cfg.Grid.End)
	}
	return cfg, nil
}

func newLogger() log.Logger {
	if !verbose {
		return log.NewNopLogger()
	}
	return log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
}

func buildIntegrator(cfg *config.Config, logger log.Logger) (*integrate.Integrator, species.Species, error) {
	sp, err := species.Lookup(cfg.Species)
	if err != nil {
		return nil, species.Species{}, err
	}
	in, err := integrate.New(rates.NewCoronal(sp), integrate.Options{
		Method:    cfg.Method,
		Tolerance: cfg.Tolerance,
		MaxEvals:  cfg.MaxEvals,
		Channels:  cfg.Channels,
		Logger:    logger,
	})
	if err != nil {
		return nil, species.Species{}, err
	}
	return in, sp, nil
}

func logAxis(n int, lo, hi float64) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("axis needs at least 2 points, got %d", n)
	}
	if lo <= 0 || hi <= lo {
		return nil, fmt.Errorf("axis must satisfy 0 < min < max, got [%g, %g]", lo, hi)
	}
	return floats.LogSpan(make([]float64, n), lo, hi), nil
}

// cacheKey seeds a cache key with the parameters every cached operation
// shares: stepper, tolerance, output time grid and initial density. Callers
// fill in the swept axes, resolutions and ensemble fields their result also
// depends on; a key that omits a determining parameter serves stale payloads.
func cacheKey(kind string, cfg *config.Config) cache.Key {
	return cache.Key{
		Kind:      kind,
		Species:   cfg.Species,
		Method:    cfg.Method,
		Tolerance: cfg.Tolerance,
		TStart:    cfg.Grid.Start,
		TEnd:      cfg.Grid.End,
		TPoints:   cfg.Grid.Points,
		Density:   cfg.Density,
	}
}

// openCache builds the configured cache backend, or nil when caching is
// disabled. A sqlite backend without an explicit path lands next to the runs.
func openCache(cfg *config.Config) (cache.Store, error) {
	backend := cfg.Cache.Backend
	if backend == "none" || backend == "off" {
		return nil, nil
	}
	path := cfg.Cache.Path
	if backend == "sqlite" && path == "" {
		path = filepath.Join(cfg.Store.Dir, "cache.db")
		if err := os.MkdirAll(cfg.Store.Dir, 0755); err != nil {
			return nil, err
		}
	}
	cs, err := cache.NewStore(backend, path)
	if err != nil {
		return nil, err
	}
	if err := cs.Init(context.Background()); err != nil {
		return nil, err
	}
	return cs, nil
}

// withCache writes the cached payload for key if present, otherwise computes
// the export, caches its encoding and writes it out.
func withCache(ctx context.Context, cfg *config.Config, key cache.Key, compute func() (any, error)) error {
	cs, err := openCache(cfg)
	if err != nil {
		return err
	}
	if cs != nil {
		defer cache.CloseIfSupported(cs)
		if !recompute {
			entry, ok, err := cs.Get(ctx, key)
			if err != nil {
				return err
			}
			if ok {
				return writeOutput(entry.Payload)
			}
		}
	}

	export, err := compute()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := store.WriteJSON(&buf, export); err != nil {
		return err
	}
	if cs != nil {
		if err := cs.Put(ctx, key, cache.Entry{Payload: buf.Bytes()}); err != nil {
			return err
		}
	}
	return writeOutput(buf.Bytes())
}

func writeOutput(data []byte) error {
	if outFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outFile, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func runIntegration(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, sp, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}

	st := store.New(cfg.Store.Dir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("integrating %s (te=%g eV, ne=%g m^-3, refuel=%g 1/s)...\n",
		sp.Name, cfg.Te, cfg.Ne, cfg.RefuelRate)
	start := time.Now()

	result, err := in.Run(context.Background(), cfg.Conditions(), cfg.InitialState(sp.Stages()), cfg.Times())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := store.RunMetadata{
		Species:    sp.Symbol,
		Method:     cfg.Method,
		Te:         cfg.Te,
		Ne:         cfg.Ne,
		RefuelRate: cfg.RefuelRate,
		Tolerance:  cfg.Tolerance,
	}
	runID, err := st.SaveRun(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("points: %d\n", len(result.Times))
	fmt.Printf("evals: %d\n", result.Evals)

	labels := analysis.ComponentLabels(sp.Stages())
	fmt.Println("\nterminal state:")
	for k, v := range result.Terminal() {
		fmt.Printf("  %-5s %.6g m^-3\n", labels[k], v)
	}
	if prad, ok := result.Series.Scalar[plasma.ChanPrad]; ok && len(prad) > 0 {
		fmt.Printf("  %-5s %.6g W/m^3\n", labels[sp.Stages()], prad[len(prad)-1])
	}

	if outFile != "" {
		meta.ID = runID
		file, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := store.WriteJSON(file, store.NewRunExport(meta, result)); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
	}
	return nil
}

func scanTemperature(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}
	axis, err := logAxis(tePoints, teMin, teMax)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("scan-te", cfg)
	key.Ne = ne
	key.TeMin, key.TeMax = teMin, teMax
	key.Carry = carry
	key.Points = tePoints
	return withCache(ctx, cfg, key, func() (any, error) {
		drv := scan.New(in, scan.Config{
			Times:   cfg.Times(),
			Initial: cfg.InitialState(in.Stages()),
			Carry:   carry,
			Logger:  logger,
		})
		res, err := drv.Temperature(ctx, axis, ne)
		if err != nil {
			return nil, err
		}
		return store.NewTemperatureExport(cfg.Species, res), nil
	})
}

func scanDensity(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}
	axis, err := logAxis(nePoints, neMin, neMax)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("scan-ne", cfg)
	key.Te = te
	key.NeMin, key.NeMax = neMin, neMax
	key.Points = nePoints
	return withCache(ctx, cfg, key, func() (any, error) {
		drv := scan.New(in, scan.Config{
			Times:   cfg.Times(),
			Initial: cfg.InitialState(in.Stages()),
			Logger:  logger,
		})
		res, err := drv.Density(ctx, axis, te)
		if err != nil {
			return nil, err
		}
		return store.NewDensityExport(cfg.Species, res), nil
	})
}

func scanTempDensity(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}
	teAxis, err := logAxis(tePoints, teMin, teMax)
	if err != nil {
		return err
	}
	neAxis, err := logAxis(nePoints, neMin, neMax)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("scan-te-ne", cfg)
	key.RefuelRate = cfg.RefuelRate
	key.TeMin, key.TeMax = teMin, teMax
	key.NeMin, key.NeMax = neMin, neMax
	key.Points, key.Inner = tePoints, nePoints
	return withCache(ctx, cfg, key, func() (any, error) {
		drv := scan.New(in, scan.Config{
			Times:   cfg.Times(),
			Initial: cfg.InitialState(in.Stages()),
			Logger:  logger,
		})
		res, err := drv.TempDensity(ctx, teAxis, neAxis, cfg.RefuelRate)
		if err != nil {
			return nil, err
		}
		return store.NewTempDensityExport(cfg.Species, res), nil
	})
}

func newEnsemble(cfg *config.Config, in *integrate.Integrator, logger log.Logger) *analysis.Ensemble {
	return analysis.NewEnsemble(in, analysis.Config{
		Samples: cfg.Ensemble.Samples,
		Initial: cfg.InitialState(in.Stages()),
		Times:   cfg.Times(),
		Seed:    cfg.Ensemble.Seed,
		Workers: cfg.Ensemble.Workers,
		Logger:  logger,
	})
}

func analyzeSpread(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("spread", cfg)
	key.Te, key.Ne = te, ne
	key.Seed = cfg.Ensemble.Seed
	key.Points = cfg.Ensemble.Samples
	return withCache(ctx, cfg, key, func() (any, error) {
		res, err := newEnsemble(cfg, in, logger).Spread(ctx, te, ne)
		if err != nil {
			return nil, err
		}
		return store.NewSpreadExport(cfg.Species, te, ne, res), nil
	})
}

func analyzePropagation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("propagation-"+param, cfg)
	key.Te, key.Ne = te, ne
	key.Seed = cfg.Ensemble.Seed
	key.Points = cfg.Ensemble.Samples
	return withCache(ctx, cfg, key, func() (any, error) {
		res, err := newEnsemble(cfg, in, logger).ErrorPropagation(ctx, analysis.Param(param), te, ne)
		if err != nil {
			return nil, err
		}
		return store.NewPropagationExport(cfg.Species, res), nil
	})
}

func analyzeResolution(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("resolution", cfg)
	key.Te, key.Ne = te, ne
	return withCache(ctx, cfg, key, func() (any, error) {
		res, err := newEnsemble(cfg, in, logger).ResolutionSweep(ctx, te, ne, nil)
		if err != nil {
			return nil, err
		}
		return store.NewResolutionExport(cfg.Species, res), nil
	})
}

func analyzeStartTime(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	in, _, err := buildIntegrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := cacheKey("start-time", cfg)
	key.Te, key.Ne = te, ne
	return withCache(ctx, cfg, key, func() (any, error) {
		res, err := newEnsemble(cfg, in, logger).StartTimeSweep(ctx, te, ne, nil)
		if err != nil {
			return nil, err
		}
		return store.NewStartTimeExport(cfg.Species, res), nil
	})
}

func listSpecies(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tZ\tSTAGES")
	for _, symbol := range species.Symbols() {
		sp, err := species.Lookup(symbol)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", sp.Symbol, sp.Name, sp.Z, sp.Stages())
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	runs, err := store.New(cfg.Store.Dir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSPECIES\tTIME\tTE\tNE\tREFUEL\tMETHOD\tPOINTS\tEVALS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\t%.4g\t%.4g\t%s\t%d\t%d\n",
			run.ID,
			run.Species,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Te,
			run.Ne,
			run.RefuelRate,
			run.Method,
			run.Points,
			run.Evals,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	export, err := store.New(cfg.Store.Dir).ExportRun(args[0])
	if err != nil {
		return err
	}
	return store.WriteJSON(os.Stdout, export)
}
