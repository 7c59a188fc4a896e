package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/gearbox/internal/anim"
	"github.com/Faultbox/gearbox/internal/assembly"
	"github.com/Faultbox/gearbox/internal/config"
	"github.com/Faultbox/gearbox/internal/export"
	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/internal/logger"
	"github.com/Faultbox/gearbox/internal/transmission"
	"github.com/Faultbox/gearbox/internal/watch"
)

// The commands run on a manual clock so shifts settle instantly.
func newGearbox() (*assembly.Gearbox, *anim.ManualClock, error) {
	clock := anim.NewManualClock(time.Now())
	gb, err := assembly.Build(cfg.Mechanism,
		assembly.WithClock(clock),
		assembly.WithLogger(logger.Named("assembly")),
		assembly.WithMachineOptions(
			transmission.WithInputRPM(cfg.Animation.InputRPM),
			transmission.WithInputPeriod(cfg.Animation.InputPeriod.Std()),
			transmission.WithCamDuration(cfg.Animation.CamDuration.Std()),
		),
	)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Animation.Paused {
		gb.Machine.Pause()
	}
	return gb, clock, nil
}

func settle(clock *anim.ManualClock) {
	clock.Advance(cfg.Animation.CamDuration.Std() + 50*time.Millisecond)
}

func shiftTo(gb *assembly.Gearbox, clock *anim.ManualClock, pos int) error {
	for gb.Machine.Position() != pos {
		var err error
		if gb.Machine.Position() < pos {
			_, err = gb.Machine.Upshift()
		} else {
			_, err = gb.Machine.Downshift()
		}
		if err != nil {
			return err
		}
		settle(clock)
	}
	return nil
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate every part and print a summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gb, _, err := newGearbox()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PART\tKIND\tMESHES\tTRIANGLES\tHANDLE")
		var meshes, tris int
		for _, p := range gb.Parts() {
			n := 0
			for _, m := range p.Meshes {
				n += m.TriangleCount()
			}
			meshes += len(p.Meshes)
			tris += n
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.Name, p.Kind, len(p.Meshes), n, p.ID)
		}
		fmt.Fprintf(tw, "total\t\t%d\t%d\t\n", meshes, tris)
		return tw.Flush()
	},
}

var shiftCmd = &cobra.Command{
	Use:   "shift [up|down|N]...",
	Short: "Run a shift sequence from neutral and print each step",
	Long: `Each argument is "up" (or "u"), "down" (or "d"), or a target
selector position 0-6 (0 is 1st, 1 is neutral).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gb, clock, err := newGearbox()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report := func(sh transmission.Shift) {
			fmt.Fprintf(out, "%-3s -> %-3s  cam %5.1f deg  ratio %.3f  output %6.0f rpm  %s\n",
				transmission.PositionName(sh.From), transmission.PositionName(sh.To),
				sh.CamTargetDegrees, sh.Ratio, sh.OutputRPM, sh.Description)
		}
		step := func(up bool) error {
			var sh transmission.Shift
			var err error
			if up {
				sh, err = gb.Machine.Upshift()
			} else {
				sh, err = gb.Machine.Downshift()
			}
			if err != nil {
				return err
			}
			settle(clock)
			report(sh)
			return nil
		}

		for _, arg := range args {
			var err error
			switch strings.ToLower(arg) {
			case "up", "u":
				err = step(true)
			case "down", "d":
				err = step(false)
			default:
				pos, perr := strconv.Atoi(arg)
				if perr != nil || pos < 0 || pos >= transmission.Positions {
					return fmt.Errorf("bad shift step %q", arg)
				}
				for gb.Machine.Position() != pos && err == nil {
					err = step(gb.Machine.Position() < pos)
				}
			}
			if errors.Is(err, transmission.ErrIllegalTransition) {
				logger.Warn("shift refused", zap.String("step", arg), zap.Error(err))
				fmt.Fprintf(out, "%-3s    refused: %v\n", transmission.PositionName(gb.Machine.Position()), err)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var (
	exportOutput   string
	exportPosition int
	exportNoMTL    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the posed gearbox as Wavefront OBJ",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("output") {
			cfg.Export.Output = exportOutput
		}
		if cmd.Flags().Changed("position") {
			cfg.Export.Position = exportPosition
		}
		if exportNoMTL {
			cfg.Export.Materials = false
		}
		return runExport(cmd)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "OBJ file to write")
	exportCmd.Flags().IntVarP(&exportPosition, "position", "p", transmission.Neutral, "Selector position to pose (0 is 1st, 1 is neutral)")
	exportCmd.Flags().BoolVar(&exportNoMTL, "no-mtl", false, "Skip the material library")
}

func runExport(cmd *cobra.Command) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gb, clock, err := newGearbox()
	if err != nil {
		return err
	}
	if err := shiftTo(gb, clock, cfg.Export.Position); err != nil {
		return err
	}

	poses := gb.Poses()
	parts := make([]export.Posed, len(poses))
	for i, pose := range poses {
		part, _ := gb.Part(pose.Name)
		parts[i] = export.Posed{Name: pose.Name, Transform: pose.Transform, Meshes: gb.Meshes(part)}
	}

	var opts export.Options
	if cfg.Export.Materials {
		mtl := strings.TrimSuffix(cfg.Export.Output, filepath.Ext(cfg.Export.Output)) + ".mtl"
		if err := writeFile(mtl, func(f *os.File) error {
			return export.WriteMTL(f, geometry.Appearances())
		}); err != nil {
			return err
		}
		opts.MaterialLib = filepath.Base(mtl)
	}

	var st export.Stats
	if err := writeFile(cfg.Export.Output, func(f *os.File) error {
		var err error
		st, err = export.WriteOBJ(f, parts, opts)
		return err
	}); err != nil {
		return err
	}
	logger.Info("exported",
		zap.String("path", cfg.Export.Output),
		zap.String("position", transmission.PositionName(cfg.Export.Position)),
		zap.Int("objects", st.Objects),
		zap.Int("vertices", st.Vertices),
		zap.Int("triangles", st.Triangles))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d objects, %d triangles\n", cfg.Export.Output, st.Objects, st.Triangles)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-export whenever the config file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := overrides.ConfigPath
		if path == "" {
			return errors.New("watch needs --config")
		}
		w, err := watch.New(path, watch.DefaultDebounce, logger.Named("watch"))
		if err != nil {
			return err
		}
		defer w.Close()

		if err := runExport(cmd); err != nil {
			logger.Warn("initial export failed", zap.Error(err))
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger.Info("watching", zap.String("config", path))
		return w.Run(ctx, func() error {
			next, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = next
			return runExport(cmd)
		})
	},
}

func loadConfig() (*config.Config, error) {
	return config.Load(overrides)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or save the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Save the effective configuration (.yaml or .toml)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
			return nil
		}
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSaveCmd)
}
