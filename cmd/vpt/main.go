// Command vpt renders a 3D scalar volume to an image with GPU volumetric
// path tracing.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/vpt"
	"github.com/gogpu/vpt/internal/config"
	"github.com/gogpu/vpt/internal/ppm"
	"github.com/gogpu/vpt/internal/render"
	"github.com/gogpu/vpt/internal/volume"
)

func main() {
	app := cli.NewApp()
	app.Name = "vpt"
	app.Usage = "render volumetric data using GPU path tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a TOML configuration file"},
		cli.StringFlag{Name: "volume", Usage: "path to the raw 8-bit volume file (required)"},
		cli.StringFlag{Name: "volume-dimensions", Usage: "volume width, height and depth, e.g. \"64 64 64\""},
		cli.StringFlag{Name: "tf", Usage: "path to the raw RGBA8 transfer-function file"},
		cli.StringFlag{Name: "camera-position", Usage: "camera x, y and z, e.g. \"-1 -1 1\""},
		cli.Float64Flag{Name: "focal-length", Usage: "projection-plane distance"},
		cli.StringFlag{Name: "mvp-matrix", Usage: "16 row-major floats of an explicit inverse MVP"},
		cli.StringFlag{Name: "out-resolution", Usage: "output width and height, e.g. \"512 512\""},
		cli.StringFlag{Name: "output", Usage: "output image path (.ppm or .png)"},
		cli.IntFlag{Name: "steps", Usage: "delta-tracking substeps per iteration"},
		cli.IntFlag{Name: "iterations", Usage: "progressive render iterations"},
		cli.Float64Flag{Name: "anisotropy", Usage: "Henyey-Greenstein g in (-1, 1)"},
		cli.Float64Flag{Name: "extinction", Usage: "majorant extinction coefficient"},
		cli.IntFlag{Name: "bounces", Usage: "scattering bounces before forced absorption"},
		cli.BoolFlag{Name: "linear", Usage: "trilinear volume filtering instead of nearest"},
		cli.StringFlag{Name: "tones", Usage: "low, mid and high tone keys, e.g. \"0 0.5 1\""},
		cli.Float64Flag{Name: "saturation", Usage: "saturation blend factor"},
		cli.Float64Flag{Name: "gamma", Usage: "display gamma"},
		cli.Int64Flag{Name: "seed", Usage: "pin the random seed for reproducible renders"},
		cli.BoolFlag{Name: "cpu", Usage: "render on the CPU instead of the GPU"},
		cli.BoolFlag{Name: "v", Usage: "enable verbose logging"},
		cli.BoolFlag{Name: "vv", Usage: "enable debug logging"},
	}
	app.Action = renderAction
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available GPU adapters",
			Action: listDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(vpt.ExitCode(err))
	}
}

// setupLogging installs a text handler at the level selected by -v/-vv.
func setupLogging(ctx *cli.Context) {
	level := slog.LevelWarn
	if ctx.GlobalBool("v") || ctx.Bool("v") {
		level = slog.LevelInfo
	}
	if ctx.GlobalBool("vv") || ctx.Bool("vv") {
		level = slog.LevelDebug
	}
	vpt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func renderAction(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := assembleOptions(ctx)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	vol, err := volume.Load(opts.VolumePath, opts.VolumeDims)
	if err != nil {
		return err
	}

	tf := volume.DefaultTransferFunc()
	if opts.TFPath != "" {
		if tf, err = volume.LoadTransferFunc(opts.TFPath); err != nil {
			return err
		}
	}

	start := time.Now()
	engine, err := render.New(*opts, vol, tf)
	if err != nil {
		return err
	}
	defer engine.Close()

	image, err := engine.Render()
	if err != nil {
		return err
	}

	if err := ppm.Write(opts.OutputPath, opts.Width, opts.Height, image); err != nil {
		return err
	}

	if ctx.Bool("v") || ctx.Bool("vv") {
		displayRenderStats(engine.DeviceName(), opts, vol, time.Since(start))
	}
	return nil
}

// assembleOptions applies the precedence chain: defaults, then the config
// file, then command-line flags.
func assembleOptions(ctx *cli.Context) (*vpt.Options, error) {
	opts := vpt.DefaultOptions()

	if path := ctx.String("config"); path != "" {
		file, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := file.Apply(&opts); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("volume") {
		opts.VolumePath = ctx.String("volume")
	}
	if ctx.IsSet("volume-dimensions") {
		dims, err := parseInts(ctx.String("volume-dimensions"), 3, "volume-dimensions")
		if err != nil {
			return nil, err
		}
		copy(opts.VolumeDims[:], dims)
	}
	if ctx.IsSet("tf") {
		opts.TFPath = ctx.String("tf")
	}
	if ctx.IsSet("camera-position") {
		pos, err := parseFloats(ctx.String("camera-position"), 3, "camera-position")
		if err != nil {
			return nil, err
		}
		copy(opts.CameraPosition[:], pos)
	}
	if ctx.IsSet("focal-length") {
		opts.FocalLength = ctx.Float64("focal-length")
	}
	if ctx.IsSet("mvp-matrix") {
		vals, err := parseFloats(ctx.String("mvp-matrix"), 16, "mvp-matrix")
		if err != nil {
			return nil, err
		}
		var m [16]float64
		copy(m[:], vals)
		opts.MVPInverse = &m
	}
	if ctx.IsSet("out-resolution") {
		res, err := parseInts(ctx.String("out-resolution"), 2, "out-resolution")
		if err != nil {
			return nil, err
		}
		opts.Width, opts.Height = res[0], res[1]
	}
	if ctx.IsSet("output") {
		opts.OutputPath = ctx.String("output")
	}
	if ctx.IsSet("steps") {
		opts.Steps = ctx.Int("steps")
	}
	if ctx.IsSet("iterations") {
		opts.Iterations = ctx.Int("iterations")
	}
	if ctx.IsSet("anisotropy") {
		opts.Anisotropy = ctx.Float64("anisotropy")
	}
	if ctx.IsSet("extinction") {
		opts.Extinction = ctx.Float64("extinction")
	}
	if ctx.IsSet("bounces") {
		opts.MaxBounces = ctx.Int("bounces")
	}
	if ctx.Bool("linear") {
		opts.Linear = true
	}
	if ctx.IsSet("tones") {
		tones, err := parseFloats(ctx.String("tones"), 3, "tones")
		if err != nil {
			return nil, err
		}
		copy(opts.Tones[:], tones)
	}
	if ctx.IsSet("saturation") {
		opts.Saturation = ctx.Float64("saturation")
	}
	if ctx.IsSet("gamma") {
		opts.Gamma = ctx.Float64("gamma")
	}
	if ctx.IsSet("seed") {
		opts.Seed = ctx.Int64("seed")
	}
	if ctx.Bool("cpu") {
		opts.ForceCPU = true
	}
	return &opts, nil
}

// parseFloats splits a space- or comma-separated list of floats.
func parseFloats(s string, want int, flag string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != want {
		return nil, vpt.Wrapf(vpt.ErrBadArguments, "--%s needs %d values, got %d", flag, want, len(fields))
	}
	out := make([]float64, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, vpt.Wrapf(vpt.ErrBadArguments, "--%s: %q is not a number", flag, f)
		}
		out[i] = v
	}
	return out, nil
}

// parseInts splits a space- or comma-separated list of integers.
func parseInts(s string, want int, flag string) ([]int, error) {
	vals, err := parseFloats(s, want, flag)
	if err != nil {
		return nil, err
	}
	out := make([]int, want)
	for i, v := range vals {
		out[i] = int(v)
		if float64(out[i]) != v {
			return nil, vpt.Wrapf(vpt.ErrBadArguments, "--%s: %g is not an integer", flag, v)
		}
	}
	return out, nil
}

// displayRenderStats prints a summary table after a verbose render.
func displayRenderStats(device string, opts *vpt.Options, vol *volume.Volume, elapsed time.Duration) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Device", "Volume", "Resolution", "Iterations", "Steps", "Time"})
	table.Append([]string{
		device,
		fmt.Sprintf("%dx%dx%d", vol.Width, vol.Height, vol.Depth),
		fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		strconv.Itoa(opts.Iterations),
		strconv.Itoa(opts.Steps),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
}

func listDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	adapters, err := render.ListAdapters()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Name", "Type", "Driver"})
	for i, a := range adapters {
		table.Append([]string{strconv.Itoa(i), a.Name, a.DeviceType, a.Driver})
	}
	table.Render()
	return nil
}
