package config

import (
	"errors"
	"fmt"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"io/fs"
	"pixellize/internal/app/pixellizer"
)

var cfg Config

type Config struct {
	TelegramAPI  string  `env:"TELEGRAM_API"`
	LoggerLevel  string  `env:"LOGGER_LEVEL" envDefault:"warn"`
	LogFile      string  `env:"LOG_FILE"`
	DatabasePath string  `env:"DATABASE_PATH" envDefault:"pixellize.db"`
	AdminID      int64   `env:"ADMIN_ID"`
	RateLimit    float64 `env:"RATE_LIMIT" envDefault:"0.2"`
	RateBurst    int     `env:"RATE_BURST" envDefault:"3"`

	MaxPixels   int     `env:"PIXELLIZE_MAX_PIXELS" envDefault:"72"`
	Length      int     `env:"PIXELLIZE_LENGTH" envDefault:"288"`
	Colors      int     `env:"PIXELLIZE_COLORS" envDefault:"20"`
	MinLevel    int     `env:"PIXELLIZE_MIN_LEVEL" envDefault:"14"`
	MaxLevel    int     `env:"PIXELLIZE_MAX_LEVEL" envDefault:"181"`
	Gamma       float64 `env:"PIXELLIZE_GAMMA" envDefault:"1.51"`
	Palette     string  `env:"PIXELLIZE_PALETTE" envDefault:"median"`
	UniformEdge int     `env:"PIXELLIZE_UNIFORM_EDGE" envDefault:"1600"`
}

// NewConfig loads the given .env files (".env" when none are given) and then
// the process environment. Missing .env files are ignored.
func NewConfig(files ...string) (*Config, error) {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg = Config{}
	err = env.Parse(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Get() *Config {
	return &cfg
}

// Params builds pipeline parameters for a pixel grid of the given longest
// edge, keeping the configured output length: rescale = Length / pixels.
func (c *Config) Params(pixels int) (pixellizer.Params, error) {
	if pixels <= 0 {
		return pixellizer.Params{}, fmt.Errorf("%w: pixels=%d must be positive", pixellizer.ErrInvalidParameter, pixels)
	}
	if c.Length <= 0 {
		return pixellizer.Params{}, fmt.Errorf("%w: length=%d must be positive", pixellizer.ErrInvalidParameter, c.Length)
	}
	method, err := pixellizer.ParsePaletteMethod(c.Palette)
	if err != nil {
		return pixellizer.Params{}, err
	}

	p := pixellizer.Params{
		MaxPixels: pixels,
		Rescale:   float64(c.Length) / float64(pixels),
		Colors:    c.Colors,
		Levels: pixellizer.Levels{
			Min:   c.MinLevel,
			Max:   c.MaxLevel,
			Gamma: c.Gamma,
		},
		Palette: method,
	}
	return p, p.Validate()
}

// DefaultParams is Params for the configured pixel grid.
func (c *Config) DefaultParams() (pixellizer.Params, error) {
	return c.Params(c.MaxPixels)
}
