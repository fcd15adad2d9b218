// Package player provides the playback devices driven by the browser controller.
package player

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/discographic/internal/infra/config"
)

// Device is a media player with a lifecycle.
type Device interface {
	Open(ctx context.Context) error
	Pause() error
	Load(source string) error
	Play() error
	Ended() <-chan struct{}
	Close() error
}

// NewFromConfig creates the playback device selected by the configuration.
func NewFromConfig(cfg config.PlaybackConfig) (Device, error) {
	zlog.Debug().Msgf("player: creating device: type=%s settings=%+v", cfg.Type, cfg.Settings)
	switch cfg.Type {
	case "mpv":
		var settings MpvSettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid mpv settings")
		}
		return NewMpv(settings), nil

	case "null":
		return NewNull(), nil

	default:
		return nil, errors.Newf("unsupported playback type: %s", cfg.Type)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		zlog.Error().Msgf("player: settings validation failed: %v", err)
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
