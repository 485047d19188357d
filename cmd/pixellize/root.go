package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"log/slog"
	"pixellize/internal/app/config"
	"pixellize/internal/app/imagefile"
	"pixellize/internal/app/pixellizer"
	"pixellize/pkg/logger"
	"time"
)

type options struct {
	length  int
	pixels  int
	colors  int
	minv    int
	maxv    int
	gamma   float64
	palette string
	edge    int
	output  string
}

func newRootCmd() *cobra.Command {
	log := logger.New()
	cfg, cfgErr := config.NewConfig()
	if cfgErr != nil {
		cfg = &config.Config{}
	} else {
		log.SetLogLevel(cfg.LoggerLevel)
	}

	opts := options{
		length:  cfg.Length,
		pixels:  cfg.MaxPixels,
		colors:  cfg.Colors,
		minv:    cfg.MinLevel,
		maxv:    cfg.MaxLevel,
		gamma:   cfg.Gamma,
		palette: cfg.Palette,
		edge:    cfg.UniformEdge,
	}

	cmd := &cobra.Command{
		Use:          "pixellize [flags] IMAGEFILE",
		Short:        "Generate a pixellated copy of IMAGEFILE",
		Version:      "0.2",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return fmt.Errorf("load config: %w", cfgErr)
			}
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, log, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.length, "length", "l", opts.length, "length of the longest edge of the result")
	f.IntVarP(&opts.pixels, "pixels", "p", opts.pixels, "number of pixels on the longest edge of the pixel grid")
	f.IntVarP(&opts.colors, "colors", "c", opts.colors, "size of the adaptive palette")
	f.IntVar(&opts.minv, "min", opts.minv, "values at or below this become black")
	f.IntVar(&opts.maxv, "max", opts.maxv, "values at or above this become white")
	f.Float64Var(&opts.gamma, "gamma", opts.gamma, "gamma of the levels curve")
	f.StringVar(&opts.palette, "palette", opts.palette, "palette method: median, kmeans or dominant")
	f.IntVar(&opts.edge, "normalize", opts.edge, "longest edge the input is resized to before pixellizing")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default IMAGEFILE with -pix before the extension)")
	return cmd
}

func (o options) validate() error {
	if o.length <= 0 {
		return fmt.Errorf("--length=L should be a positive integer (L>0)")
	}
	if o.pixels <= 0 {
		return fmt.Errorf("--pixels=P should be a positive integer")
	}
	if o.edge <= 0 {
		return fmt.Errorf("--normalize should be a positive integer")
	}
	return nil
}

func (o options) params() (pixellizer.Params, error) {
	method, err := pixellizer.ParsePaletteMethod(o.palette)
	if err != nil {
		return pixellizer.Params{}, err
	}
	p := pixellizer.Params{
		MaxPixels: o.pixels,
		Rescale:   float64(o.length) / float64(o.pixels),
		Colors:    o.colors,
		Levels:    pixellizer.Levels{Min: o.minv, Max: o.maxv, Gamma: o.gamma},
		Palette:   method,
	}
	return p, p.Validate()
}

func run(cmd *cobra.Command, log *logger.Logger, o options, input string) error {
	params, err := o.params()
	if err != nil {
		return err
	}
	output := o.output
	if output == "" {
		output = imagefile.OutputPath(input)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Creating the pixellated", output, "from", input)

	start := time.Now()
	src, err := imagefile.Open(input)
	if err != nil {
		return err
	}
	src, err = imagefile.Normalize(src, o.edge)
	if err != nil {
		return err
	}
	out, err := pixellizer.Pixellize(src, params)
	if err != nil {
		return fmt.Errorf("pixellize %s: %w", input, err)
	}
	if err := imagefile.Save(out, output); err != nil {
		return err
	}

	log.Info("pixellized",
		slog.String("input", input),
		slog.String("output", output),
		slog.Int("width", out.Bounds().Dx()),
		slog.Int("height", out.Bounds().Dy()),
		slog.Int("colors", len(out.Palette)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
