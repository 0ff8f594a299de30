package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mprviewer/internal/models"
	"mprviewer/pkg/config"
	"mprviewer/pkg/logging"
	"mprviewer/pkg/render"
	"mprviewer/pkg/replay"
	"mprviewer/pkg/tui"
	"mprviewer/pkg/viewer"
	"mprviewer/pkg/volume"
)

var (
	configFile  string
	inputDir    string
	phantom     bool
	phantomSize []int
	logLevel    string
	snapshotDir string
	outputDir   string
	axes        []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mprviewer",
		Short:         "multi-planar reconstruction viewer with a synchronized cross-hair",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "mprviewer.yaml", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input", "", "directory containing 2D slice images")
	rootCmd.PersistentFlags().BoolVar(&phantom, "phantom", false, "use a synthetic phantom volume instead of --input")
	rootCmd.PersistentFlags().IntSliceVar(&phantomSize, "phantom-size", []int{128, 128, 64}, "phantom dimensions x,y,z")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "open the three synchronized views in the terminal",
		RunE:  runView,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [script.yaml]",
		Short: "apply a scripted interaction sequence and print each change-set",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().StringVar(&snapshotDir, "snapshots", "", "directory for JPEG snapshots of snapshot events")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export every slice along the selected orientations as JPEG",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&outputDir, "output", "slices", "output directory")
	exportCmd.Flags().StringSliceVar(&axes, "orientation", []string{"axial", "coronal", "sagital"}, "orientations to export")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(configFile); err != nil {
				return err
			}
			fmt.Printf("Default configuration written to: %s\n", configFile)
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(viewCmd, replayCmd, exportCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by the commands once the volume is loaded
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closer   io.Closer
	model    *volume.Model
	settings viewer.Settings
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}

	a := &app{cfg: cfg}
	if cfg.Output.LogFile != "" {
		a.logger, a.closer, err = logging.NewFile(cfg.Output.LogFile, cfg.Output.LogLevel)
		if err != nil {
			return nil, err
		}
	} else {
		a.logger = logging.New(os.Stderr, cfg.Output.LogLevel)
	}

	a.settings, err = cfg.Settings()
	if err != nil {
		a.close()
		return nil, err
	}

	start := time.Now()
	a.model, err = loadVolume(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	dims := a.model.Volume().Dims()
	mean, std := a.model.Stats()
	a.logger.Info("volume loaded",
		"width", dims[0], "height", dims[1], "depth", dims[2],
		"mean", mean, "stddev", std, "elapsed", time.Since(start))
	return a, nil
}

func loadVolume(cfg *config.Config) (*volume.Model, error) {
	switch {
	case phantom:
		if len(phantomSize) != 3 {
			return nil, fmt.Errorf("--phantom-size needs three values, got %d", len(phantomSize))
		}
		vol := volume.Phantom(phantomSize[0], phantomSize[1], phantomSize[2], cfg.Spacing())
		vol.Origin = cfg.Origin()
		return volume.New(vol)
	case inputDir != "":
		vol, err := volume.LoadDir(inputDir, cfg.Spacing())
		if err != nil {
			return nil, err
		}
		vol.Origin = cfg.Origin()
		return volume.New(vol)
	}
	return nil, fmt.Errorf("%w: either --input or --phantom is required", volume.ErrLoadFailure)
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

// newSession builds the three headless surfaces, the volume planes and a
// started session
func (a *app) newSession() (*viewer.Session, [3]*render.Surface, *viewer.VolumePlanes, *render.Planes, error) {
	var surfaces [3]*render.Surface
	bound := make(map[models.Orientation]viewer.Surface, len(models.Orientations))
	for _, o := range models.Orientations {
		surfaces[o] = render.NewSurface(o, a.cfg.Display.ViewportWidth, a.cfg.Display.ViewportHeight)
		bound[o] = surfaces[o]
	}

	session, err := viewer.NewSession(a.model, bound, a.settings, a.logger)
	if err != nil {
		return nil, surfaces, nil, nil, err
	}

	widget := render.NewPlanes()
	planes := viewer.NewVolumePlanes(a.model, widget, a.logger)
	planes.Attach(session)
	for _, o := range a.settings.Planes {
		if err := planes.Enable(o); err != nil {
			return nil, surfaces, nil, nil, err
		}
	}

	if err := session.Start(); err != nil {
		return nil, surfaces, nil, nil, err
	}
	return session, surfaces, planes, widget, nil
}

func runView(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	session, surfaces, planes, widget, err := a.newSession()
	if err != nil {
		return err
	}
	return tui.Run(tui.New(session, surfaces, planes, widget, a.logger))
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	session, surfaces, _, _, err := a.newSession()
	if err != nil {
		return err
	}

	var snapshot replay.Snapshotter
	if snapshotDir != "" {
		snapshot = func(step int) error {
			for _, o := range models.Orientations {
				path := filepath.Join(snapshotDir, render.SnapshotFileName(o, step))
				if err := render.SaveSlice(surfaces[o].Snapshot(), path, a.cfg.Output.SnapshotQuality); err != nil {
					return err
				}
			}
			return nil
		}
	}

	idx := session.Synchronizer().Indices()
	fmt.Printf("Replaying %d events (sagital %d, coronal %d, axial %d)\n",
		len(script.Events), idx.Sagital(), idx.Coronal(), idx.Axial())
	err = script.Run(session, snapshot, func(st replay.Step) {
		fmt.Println(replay.FormatStep(st))
	})
	if err != nil {
		return err
	}
	if !session.Synchronizer().Consistent() {
		return errors.New("replay left the views inconsistent with the cross-hair")
	}
	if snapshotDir != "" {
		fmt.Printf("Snapshots saved to: %s\n", snapshotDir)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	// The session resolves the display window, including the derived default
	session, _, _, _, err := a.newSession()
	if err != nil {
		return err
	}
	window := session.Window()

	for _, name := range axes {
		o, err := models.ParseOrientation(name)
		if err != nil {
			return err
		}
		dir := filepath.Join(outputDir, strings.ToLower(o.String()))
		fmt.Printf("Saving %s slices to: %s\n", o, dir)
		n, err := render.SaveSliceSequence(a.model, o, window, a.settings.Thickness, dir, a.cfg.Output.SnapshotQuality)
		if err != nil {
			a.logger.Warn("export failed", "orientation", o.String(), "written", n, "error", err)
			return err
		}
		fmt.Printf("  %d slices written\n", n)
	}
	fmt.Println("Slice export completed!")
	return nil
}
