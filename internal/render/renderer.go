package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Render tuning defaults.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// minArtifactSize is the smallest plausible card image. Outputs at or
// below this size are blank or broken pages and count as failures.
const minArtifactSize = 4096

// ErrNoArtifact reports that every render attempt failed. It is terminal
// for the one item but non-fatal: callers skip delivery and continue the
// batch.
var ErrNoArtifact = errors.New("no artifact produced")

// Options are the fixed output options passed to the backend.
type Options struct {
	FullPage bool   `json:"full_page"`
	Type     string `json:"type"`
	Quality  int    `json:"quality"`
	Scale    string `json:"scale"`
}

func defaultOptions() Options {
	return Options{FullPage: true, Type: "jpeg", Quality: 95, Scale: "device"}
}

// Backend turns a template plus render data into an image.
type Backend interface {
	Render(ctx context.Context, tmpl string, data *Model, opts Options) ([]byte, error)
}

// Config configures a Renderer. Zero values fall back to defaults.
type Config struct {
	TemplateDir   string
	Style         string
	FallbackImage bool
	MaxAttempts   int
	RetryDelay    time.Duration
	BannerPath    string
	LogoPath      string
}

// Renderer renders dynamics into card images with bounded retries.
type Renderer struct {
	backend       Backend
	dir           string
	style         string
	fallbackImage bool
	maxAttempts   int
	retryDelay    time.Duration
	banner        string
	logo          string
	log           *slog.Logger

	mu        sync.RWMutex
	templates map[string]string
}

// New creates a Renderer and preloads every template style found in the
// template directory.
func New(backend Backend, cfg Config, log *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		backend:       backend,
		dir:           cfg.TemplateDir,
		style:         cfg.Style,
		fallbackImage: cfg.FallbackImage,
		maxAttempts:   cfg.MaxAttempts,
		retryDelay:    cfg.RetryDelay,
		banner:        imageToBase64(cfg.BannerPath),
		logo:          imageToBase64(cfg.LogoPath),
		log:           log,
	}
	if r.style == "" {
		r.style = DefaultStyle
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.retryDelay <= 0 {
		r.retryDelay = DefaultRetryDelay
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Render produces the card image for one render model. Backend errors,
// missing output and undersized output are retried up to the attempt
// bound with a fixed delay between attempts; exhaustion yields
// ErrNoArtifact.
func (r *Renderer) Render(ctx context.Context, data *Model, style string) ([]byte, error) {
	tmpl := r.Template(style)
	opts := defaultOptions()

	var out []byte
	attempt := 0
	op := func() error {
		attempt++
		artifact, err := r.backend.Render(ctx, tmpl, data, opts)
		if err != nil {
			r.log.Error("render card", "attempt", attempt, "error", err)
			return err
		}
		if len(artifact) <= minArtifactSize {
			err := fmt.Errorf("undersized artifact: %d bytes", len(artifact))
			r.log.Error("render card", "attempt", attempt, "error", err)
			return err
		}
		out = artifact
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryDelay), uint64(r.maxAttempts-1))
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrNoArtifact, attempt, err)
	}
	return out, nil
}

// Style returns the renderer's configured default style.
func (r *Renderer) Style() string {
	return r.style
}
