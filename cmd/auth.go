package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/dzrpc/internal/server"
	"github.com/desertthunder/dzrpc/internal/services"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 5 * time.Minute

// AuthSpotify runs the authorization code flow and stores the artwork service token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}
	if r.configPath == "" {
		return fmt.Errorf("%w: run `dzrpc setup config` first", shared.ErrMissingConfig)
	}

	sp := r.config.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	redirect, err := url.Parse(sp.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, sp.RedirectURI)
	}

	artwork := services.NewArtworkService(sp, r.store, services.ArtworkOptions{HTTPClient: r.httpClient, Logger: r.logger})
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(artwork, state)

	router := server.NewChiRouter(r.logger)
	router.Handler(handler)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, redirect.Host, router, r.logger) }()

	authURL := artwork.AuthURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize dzrpc:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL to authorize dzrpc:\n%s\n", authURL)
	}

	select {
	case result := <-handler.Result():
		cancel()
		<-errCh
		if err := result.Error(); err != nil {
			return err
		}
	case err := <-errCh:
		if err == nil {
			err = fmt.Errorf("%w: timed out waiting for the callback", shared.ErrAuthFailed)
		}
		return err
	}

	r.logger.Info("artwork token saved", "path", r.configPath)
	return r.writePlain("✓ Spotify authorization successful\n")
}

// AuthStatus reports whether an artwork token is stored and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}

	cred := r.store.Credential()
	switch {
	case cred.AccessToken == "" && cred.RefreshToken == "":
		return r.writePlain("Spotify: ✗ Not authorized (run 'dzrpc auth spotify')\n")
	case cred.ExpiresAt.IsZero():
		r.writePlain("Spotify: ✓ Authorized\n")
	case time.Now().After(cred.ExpiresAt):
		r.writePlain("Spotify: ✓ Authorized, token expired %s (refreshed on next lookup)\n", cred.ExpiresAt.Local().Format(time.RFC3339))
	default:
		r.writePlain("Spotify: ✓ Authorized, token expires %s\n", cred.ExpiresAt.Local().Format(time.RFC3339))
	}

	if cred.RefreshToken == "" {
		r.writePlain("Warning: no refresh token stored\n")
	}
	return nil
}
