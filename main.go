package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/df07/go-hitshade/pkg/config"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/renderer"
	"github.com/df07/go-hitshade/pkg/scene"
)

// options are the parsed command line
type options struct {
	configPath string
	list       bool
	verbose    bool
	quiet      bool
	flags      config.Config
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hitshade: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if opts == nil {
		return nil // -help
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logger := core.NewSlogLogger(slog.Default())

	if opts.list {
		return listScenes(stdout)
	}

	var file config.Config
	if opts.configPath != "" {
		if file, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Resolve(file, opts.flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := createScene(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return renderScene(ctx, s, cfg, logger, !opts.quiet)
}

func parseFlags(args []string, stdout io.Writer) (*options, error) {
	fs := flag.NewFlagSet("hitshade", flag.ContinueOnError)
	fs.SetOutput(stdout)

	opts := &options{}
	var clearColor string
	help := fs.Bool("help", false, "Show help information")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file; flags override its values")
	fs.BoolVar(&opts.list, "list", false, "List built-in and model scenes and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&opts.quiet, "quiet", false, "Disable the progress bar")
	fs.StringVar(&opts.flags.Scene, "scene", "", "Built-in scene id or model file (.obj, .gltf, .glb, .ply)")
	fs.IntVar(&opts.flags.Width, "width", 0, "Output width in pixels")
	fs.IntVar(&opts.flags.Height, "height", 0, "Output height in pixels")
	fs.IntVar(&opts.flags.Samples, "samples", 0, "Maximum samples per pixel")
	fs.IntVar(&opts.flags.Passes, "passes", 0, "Number of progressive passes")
	fs.IntVar(&opts.flags.TileSize, "tile", 0, "Tile size in pixels")
	fs.IntVar(&opts.flags.Workers, "workers", 0, "Render workers (0 = CPU count)")
	fs.StringVar(&opts.flags.Variant, "variant", "", "Packing variant: phong or metallic-roughness (default: the scene's own)")
	fs.StringVar(&opts.flags.Mode, "mode", "", "Material behavior: delivered (flat / slot 0) or material (per-triangle materials and textures)")
	fs.StringVar(&clearColor, "clear", "", "Clear color as r,g,b[,a] in [0,1]")
	fs.Func("gamma", "Output gamma (default 1, no correction)", func(s string) error {
		g, err := strconv.ParseFloat(s, 32)
		opts.flags.Gamma = float32(g)
		return err
	})
	fs.IntVar(&opts.flags.Supersample, "supersample", 0, "Render at N times the size and downsample")
	fs.StringVar(&opts.flags.Output, "output", "", "Output file (default output/<scene>/render.<format>)")
	fs.StringVar(&opts.flags.Format, "format", "", "Output format: png or webp (default from the output extension)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *help {
		fmt.Fprintln(stdout, "hitshade: progressive closest-hit / miss shading renderer")
		fmt.Fprintln(stdout, "Usage: hitshade [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Built-in scenes: %s\n", strings.Join(scene.BuiltinNames(), ", "))
		return nil, nil
	}

	if clearColor != "" {
		c, err := parseColor(clearColor)
		if err != nil {
			return nil, err
		}
		opts.flags.ClearColor = &c
	}
	return opts, nil
}

// parseColor reads "r,g,b" or "r,g,b,a"; alpha defaults to 1
func parseColor(s string) ([4]float32, error) {
	c := [4]float32{0, 0, 0, 1}
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return c, fmt.Errorf("clear color %q: want 3 or 4 components", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return c, fmt.Errorf("clear color %q: %w", s, err)
		}
		c[i] = float32(v)
	}
	return c, nil
}

// createScene resolves the configured scene id or model path
func createScene(ctx context.Context, cfg config.Config, logger core.Logger) (*scene.Scene, error) {
	loadOpts, err := cfg.LoadOptions()
	if err != nil {
		return nil, err
	}
	loadOpts.Logger = logger
	return scene.Load(ctx, cfg.Scene, loadOpts)
}

func renderScene(ctx context.Context, s *scene.Scene, cfg config.Config, logger core.Logger, showProgress bool) error {
	progressiveConfig, err := cfg.ProgressiveConfig()
	if err != nil {
		return err
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}

	width, height := cfg.RenderSize()
	pr, err := renderer.NewProgressiveRaytracer(s, width, height, progressiveConfig, logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	passChan, tileChan, errChan := pr.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: showProgress})

	tilesDone := make(chan struct{})
	go func() {
		defer close(tilesDone)
		var bar *progressbar.ProgressBar
		pass := 0
		for tile := range tileChan {
			// Updates can be dropped under load, so key the bar on the pass number
			if tile.PassNumber != pass {
				if bar != nil {
					bar.Close()
				}
				pass = tile.PassNumber
				bar = progressbar.Default(int64(tile.TotalTiles), fmt.Sprintf("pass %d/%d", tile.PassNumber, tile.TotalPasses))
			}
			bar.Set(tile.TileNumber)
		}
		if bar != nil {
			bar.Close()
		}
	}()

	var last renderer.PassResult
	for result := range passChan {
		last = result
	}
	<-tilesDone
	for err := range errChan {
		if err != nil {
			return err
		}
	}
	if last.Image == nil {
		return fmt.Errorf("render produced no passes")
	}

	logger.Printf("Render completed in %v: %.1f samples/pixel (range %d - %d), average luminance %.3f\n",
		time.Since(startTime), last.Stats.AverageSamples, last.Stats.MinSamples, last.Stats.MaxSamplesUsed,
		renderer.CalculateAverageLuminance(last.Image))

	img := renderer.Downsample(last.Image, cfg.Supersample)
	path := cfg.OutputPath()
	if err := renderer.SaveImage(path, img, format); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", path)
	return nil
}

func listScenes(w io.Writer) error {
	response, err := scene.ListAllScenes()
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-24s %s (%s)\n", info.ID, info.DisplayName, info.Variant)
		}
	}
	return nil
}
