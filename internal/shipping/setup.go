package shipping

import (
	"context"

	"bhesbhusa/internal/config"

	"github.com/rs/zerolog"
)

// LoadConfigured returns the rate table selected by configuration.
// Without a rate sheet the defaults apply.
func LoadConfigured(ctx context.Context, shippingCfg config.ShippingConfig, s3Cfg config.S3Config, logger zerolog.Logger) (*Rates, error) {
	if shippingCfg.RatesFile == "" {
		logger.Info().Msg("no shipping rate sheet configured, using default rates")
		return DefaultRates(), nil
	}

	var remote Loader
	if s3Cfg.Enabled {
		l, err := NewS3Loader(ctx, s3Cfg.Bucket, s3Cfg.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("S3 unavailable, rate sheet will be read locally")
		} else {
			remote = l
		}
	}

	loader := NewFallbackLoader(remote, NewFileLoader(logger), s3Cfg.Prefix, s3Cfg.Enabled, logger)
	return loader.Load(ctx, shippingCfg.RatesFile)
}
