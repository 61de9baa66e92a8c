package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/experiment"
	"github.com/san-kum/aeromodal/internal/logging"
	"github.com/san-kum/aeromodal/internal/metrics"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/storage"
	"github.com/san-kum/aeromodal/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	logFormat   string
	metricsFile string

	// modal overrides
	numModes   int
	damped     bool
	rigidBody  bool
	writeModes bool

	// stability overrides
	sysID    string
	cutoff   float64
	numEvals int

	outPath string
	svgPath string
	width   int
	height  int
)

var (
	logger   *zap.Logger
	recorder = metrics.NewRecorder()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aeromodal",
		Short:         "structural modes and aeroelastic stability",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(logging.Config{Level: logLevel, Format: logFormat})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				_ = logger.Sync()
			}
			if metricsFile == "" {
				return nil
			}
			return recorder.WriteTextfile(metricsFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "run directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	modalCmd := &cobra.Command{
		Use:   "modal [case.yaml]",
		Short: "extract structural modes",
		Args:  cobra.ExactArgs(1),
		RunE:  runModal,
	}
	addConfigFlags(modalCmd)
	modalCmd.Flags().IntVar(&numModes, "modes", 0, "number of modes to keep")
	modalCmd.Flags().BoolVar(&damped, "damped", false, "solve the damped eigenproblem")
	modalCmd.Flags().BoolVar(&rigidBody, "rigid", false, "include rigid-body modes")
	modalCmd.Flags().BoolVar(&writeModes, "write-modes", false, "write mode shapes as vtu")

	stabilityCmd := &cobra.Command{
		Use:   "stability [case.yaml]",
		Short: "eigenvalues of a coupled system",
		Args:  cobra.ExactArgs(1),
		RunE:  runStability,
	}
	addConfigFlags(stabilityCmd)
	stabilityCmd.Flags().StringVar(&sysID, "sys-id", "", "system to analyse")
	stabilityCmd.Flags().Float64Var(&cutoff, "cutoff", -1, "frequency cutoff in rad/s (0 keeps all)")
	stabilityCmd.Flags().IntVar(&numEvals, "num-evals", -1, "eigenvector columns to store")
	stabilityCmd.Flags().BoolVar(&writeModes, "write-modes", false, "write structural mode shapes as vtu")

	runCmd := &cobra.Command{
		Use:   "run [case.yaml]",
		Short: "run the solvers listed in the configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigured,
	}
	addConfigFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print eigenvalues of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout if empty)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print eigenvalues of a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportArrowCmd := &cobra.Command{
		Use:   "export-arrow [run_id] [file]",
		Short: "write eigenvalues of a run as an arrow stream",
		Args:  cobra.ExactArgs(2),
		RunE:  exportArrow,
	}

	zetaCmd := &cobra.Command{
		Use:   "zeta [case.yaml]",
		Short: "write the deformed lattice of every mode as vtu",
		Args:  cobra.ExactArgs(1),
		RunE:  writeZeta,
	}
	addConfigFlags(zetaCmd)
	zetaCmd.Flags().StringVarP(&outPath, "out", "o", "modes", "output directory")

	modesCmd := &cobra.Command{
		Use:   "modes [case.yaml]",
		Short: "browse modes interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  browseModes,
	}
	addConfigFlags(modesCmd)

	locusCmd := &cobra.Command{
		Use:   "locus [run_id]",
		Short: "plot eigenvalues of a run in the complex plane",
		Args:  cobra.ExactArgs(1),
		RunE:  plotLocus,
	}
	locusCmd.Flags().IntVar(&width, "width", 60, "plot width")
	locusCmd.Flags().IntVar(&height, "height", 20, "plot height")
	locusCmd.Flags().StringVar(&svgPath, "svg", "", "also write the plot as svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, kind := range []string{"modal", "stability"} {
				names := config.ListPresets(kind)
				sort.Strings(names)
				fmt.Printf("%s: %s\n", kind, strings.Join(names, ", "))
			}
		},
	}

	rootCmd.AddCommand(modalCmd, stabilityCmd, runCmd, listCmd, showCmd, exportCmd, exportCSVCmd,
		exportArrowCmd, zetaCmd, modesCmd, locusCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// loadConfig resolves the configuration from --config, --preset or the
// defaults, in that order.
func loadConfig() (*config.Config, error) {
	switch {
	case configFile != "":
		return config.Load(configFile)
	case preset != "":
		for _, kind := range []string{"modal", "stability"} {
			if cfg := config.GetPreset(kind, preset); cfg != nil {
				return cfg, nil
			}
		}
		return nil, fmt.Errorf("unknown preset: %s", preset)
	default:
		return config.DefaultConfig(), nil
	}
}

func applyModalFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("modes") {
		cfg.Modal.NumModes = numModes
	}
	if cmd.Flags().Changed("damped") {
		cfg.Modal.UseUndampedModes = !damped
	}
	if cmd.Flags().Changed("rigid") {
		cfg.Modal.RigidBodyModes = rigidBody
	}
	if cmd.Flags().Changed("write-modes") {
		cfg.Modal.WriteModes = writeModes
	}
}

func applyStabilityFlags(cmd *cobra.Command, cfg *config.Config) {
	if sysID != "" {
		cfg.Stability.SysID = sysID
	}
	if cutoff >= 0 {
		cfg.Stability.FrequencyCutoff = cutoff
	}
	if numEvals >= 0 {
		cfg.Stability.NumEvals = numEvals
	}
	if cmd.Flags().Changed("write-modes") {
		cfg.Stability.WriteModes = writeModes
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// execute loads the case and runs cfg.Solvers on it.
func execute(cfg *config.Config, casePath string) (*storage.Case, *experiment.Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	c, err := storage.LoadCase(casePath)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out, err := experiment.New(cfg, experiment.InputFromCase(c), recorder, logger).Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, out, nil
}

func runModal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Solvers = []string{"modal"}
	applyModalFlags(cmd, cfg)
	return runAndSave(cfg, args[0])
}

func runStability(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Solvers = []string{"stability"}
	applyStabilityFlags(cmd, cfg)
	return runAndSave(cfg, args[0])
}

func runConfigured(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return runAndSave(cfg, args[0])
}

func runAndSave(cfg *config.Config, casePath string) error {
	c, out, err := execute(cfg, casePath)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	if b := out.Basis; b != nil {
		if !cfg.Modal.KeepLinearMatrices {
			b.M, b.C, b.K = nil, nil, nil
		}
		runID, err := st.SaveModal(c.Name, b)
		if err != nil {
			return err
		}
		fmt.Printf("modal run: %s\n", runID)
		if b.Warning != "" {
			fmt.Printf("warning: %s\n", b.Warning)
		}
		fmt.Println(viz.EigenTable(b.Eigenvalues, b.Frequencies(), b.Damping))
		if cfg.Modal.WriteModes {
			if err := writeShapes(st.RunDir(runID), out.Shapes, c); err != nil {
				return err
			}
		}
	}

	if r := out.Result; r != nil {
		runID, err := st.SaveStability(c.Name, r)
		if err != nil {
			return err
		}
		if err := out.Analyzer.MarkExported(); err != nil {
			return err
		}
		fmt.Printf("stability run: %s\n", runID)
		fmt.Println(viz.EigenTable(r.Eigenvalues, r.Frequencies(), r.DampingRatios()))
		if cfg.Stability.WriteModes {
			if err := writeShapes(st.RunDir(runID), out.RootShapes, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeShapes(dir string, shapes []modeshape.Shape, c *storage.Case) error {
	if len(shapes) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	count := 0
	for _, s := range shapes {
		files, err := storage.WriteZetaVTU(filepath.Join(dir, fmt.Sprintf("mode_%03d", s.Mode)), s.Zeta, c.Lattice)
		if err != nil {
			return err
		}
		count += len(files)
	}
	fmt.Printf("wrote %d vtu files to %s\n", count, dir)
	return nil
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
	fmt.Fprintln(w, "ID\tKIND\tCASE\tTIME\tMODES\tSTATES\tSYSTEM")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Kind,
			run.Case,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Modes,
			run.States,
			run.SysID,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", data.Run.ID)
	fmt.Printf("kind: %s\n", data.Run.Kind)
	fmt.Printf("case: %s\n", data.Run.Case)
	if data.Run.Warning != "" {
		fmt.Printf("warning: %s\n", data.Run.Warning)
	}
	fmt.Println()

	values := make([]complex128, len(data.Eigenvalues))
	freq := make([]float64, len(data.Eigenvalues))
	damp := make([]float64, len(data.Eigenvalues))
	for i, e := range data.Eigenvalues {
		values[i] = complex(e.Real, e.Imag)
		freq[i] = e.Frequency
		damp[i] = e.Damping
	}
	fmt.Println(viz.EigenTable(values, freq, damp))
	fmt.Println()
	fmt.Println(viz.FrequencyPlot(freq, "frequency vs mode", 60, 10))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.ExportJSONStdout(data)
	}
	return storage.ExportJSON(outPath, data)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	f, err := os.Open(filepath.Join(st.RunDir(args[0]), "eigenvalues.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportArrow(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	values := make([]complex128, len(data.Eigenvalues))
	freq := make([]float64, len(data.Eigenvalues))
	damp := make([]float64, len(data.Eigenvalues))
	for i, e := range data.Eigenvalues {
		values[i] = complex(e.Real, e.Imag)
		freq[i] = e.Frequency
		damp[i] = e.Damping
	}
	if err := storage.WriteEigenArrow(args[1], values, freq, damp); err != nil {
		return err
	}
	fmt.Printf("wrote %d eigenvalues to %s\n", len(values), args[1])
	return nil
}

func writeZeta(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Solvers = []string{"modal"}
	cfg.Modal.WriteModes = true

	c, out, err := execute(cfg, args[0])
	if err != nil {
		return err
	}
	if c.Lattice == nil {
		return fmt.Errorf("case %s has no aerodynamic lattice", c.Name)
	}
	return writeShapes(outPath, out.Shapes, c)
}

func browseModes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Modal.WriteModes = true

	c, out, err := execute(cfg, args[0])
	if err != nil {
		return err
	}

	var entries []viz.ModeEntry
	title := c.Name
	switch {
	case out.Result != nil:
		entries = viz.EntriesFromResult(out.Result)
		title += " stability"
	case out.Basis != nil:
		entries = viz.EntriesFromBasis(out.Basis, out.Shapes)
		title += " modes"
	}

	p := tea.NewProgram(viz.NewModeBrowser(title, entries, c.Lattice), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func plotLocus(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	values, err := st.LoadEigenvalues(args[0])
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no eigenvalues in run %s", args[0])
	}
	fmt.Println(viz.RootLocus(values, width, height))
	if svgPath != "" {
		return os.WriteFile(svgPath, []byte(viz.LocusSVG(values, 10*width, 10*height)), 0644)
	}
	return nil
}
