package shipping

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"bhesbhusa/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Loader reads a rate sheet from some location.
type Loader interface {
	Load(ctx context.Context, path string) (*Rates, error)
}

// rateSheet is the on-disk format:
//
//	{"rates": {"IN_STORE_PICKUP": "0", "INSIDE_THE_VALLEY": "100", "OUTSIDE_THE_VALLEY": "300"}}
type rateSheet struct {
	Rates map[model.ShippingMethod]decimal.Decimal `json:"rates"`
}

// decodeRateSheet parses a sheet, transparently un-gzipping names ending in .gz.
func decodeRateSheet(r io.Reader, name string) (*Rates, error) {
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gz.Close()
		r = gz
	}

	var sheet rateSheet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sheet); err != nil {
		return nil, fmt.Errorf("failed to decode rate sheet %s: %w", name, err)
	}

	rates, err := NewRates(sheet.Rates)
	if err != nil {
		return nil, fmt.Errorf("invalid rate sheet %s: %w", name, err)
	}
	return rates, nil
}

type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a loader for local rate sheets.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "shipping-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) (*Rates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading shipping rate sheet")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open rate sheet")
		return nil, fmt.Errorf("failed to open rate sheet %s: %w", path, err)
	}
	defer file.Close()

	rates, err := decodeRateSheet(file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read rate sheet")
		return nil, err
	}

	l.logger.Info().Str("file", path).Int("methods", rates.Size()).Msg("shipping rates loaded")
	return rates, nil
}

type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader tries S3 first (key = prefix + path) and falls back to
// the local file at path. A nil s3Loader means local only.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "shipping-fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, path string) (*Rates, error) {
	if l.s3Enabled && l.s3Loader != nil {
		key := l.s3Prefix + path

		rates, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return rates, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load rate sheet from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, path)
}
