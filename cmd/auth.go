package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tlsync/internal/server"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens which are saved to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if configPath := cmd.String("config"); configPath != "" {
		r.configPath = configPath
	}

	svc, err := r.requireSpotify()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configLocation())
	r.writePlain("You can now use: tlsync sync run <tracklist file>\n")

	return nil
}

// AuthStatus checks the stored token by fetching the user's profile.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.requireSpotify()
	if err != nil {
		return err
	}

	if err := r.authenticate(ctx, svc); err != nil {
		r.writePlain("✗ Not authenticated: %v\n", err)
		return nil
	}

	profile, err := svc.UserProfile(ctx)
	if err != nil {
		r.writePlain("✗ Stored token rejected: %v\n", err)
		r.writePlain("Run 'tlsync auth login' to reauthorize.\n")
		return nil
	}

	r.writePlain("✓ Authenticated as %s (%s)\n", profile.DisplayName, profile.ID)
	if profile.Email != "" {
		r.writePlain("  Email: %s\n", profile.Email)
	}
	if !r.config.Credentials.Spotify.Expiry.IsZero() {
		r.writePlain("  Token expires: %s\n", r.config.Credentials.Spotify.Expiry.Format(time.RFC3339))
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
func (r *Runner) doOAuth(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := svc.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(svc.Exchange, state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	done := make(chan struct{})
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := server.ListenAndWait(ctx, serverAddr, router, done, r.logger); err != nil {
			serverErrors <- err
		}
	}()
	defer close(done)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
