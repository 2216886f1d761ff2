package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigGet prints one store key.
func (r *Runner) ConfigGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}

	value, err := r.store.Get(key)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", value)
}

// ConfigSet writes one store key. The config file must exist.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	key, value := cmd.StringArg("key"), cmd.StringArg("value")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}
	if r.configPath == "" {
		return fmt.Errorf("%w: run `dzrpc setup config` first", shared.ErrMissingConfig)
	}

	if err := r.store.Set(key, value); err != nil {
		return err
	}
	r.logger.Info("setting saved", "key", key, "path", r.configPath)
	return nil
}

// ConfigList prints every store key. Token values are masked.
func (r *Runner) ConfigList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}

	for _, key := range shared.Keys {
		value, err := r.store.Get(key)
		if err != nil {
			return err
		}
		if isSecret(key) && value != "" {
			value = mask(value)
		}
		r.writePlain("%-24s %s\n", key, value)
	}
	return nil
}

func isSecret(key string) bool {
	return key == shared.KeySpotifyAccessToken || key == shared.KeySpotifyRefreshToken
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
