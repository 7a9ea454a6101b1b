package main

import (
	"fmt"

	"grantiv/internal/apiclient"
	"grantiv/internal/auth"
	"grantiv/internal/session"
)

// newClient starts a session from the client config and returns an API
// client bound to it. When no token is configured but the signing secret is
// available locally, a token is minted for the configured user and org.
func newClient() (*apiclient.Client, *session.Session, error) {
	token := cfg.Client.Token
	if token == "" && cfg.Auth.JWTSecret != "" && cfg.Client.UserID != "" && cfg.Client.OrgID != "" {
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
		if err != nil {
			return nil, nil, err
		}
		if token, err = issuer.Issue(cfg.Client.UserID, cfg.Client.OrgID); err != nil {
			return nil, nil, err
		}
	}
	if token == "" {
		return nil, nil, fmt.Errorf("not signed in: set GRANTIV_TOKEN (see `grantiv token`)")
	}

	sess := session.New()
	sess.Start(token, cfg.Client.UserID, cfg.Client.OrgID)

	client, err := apiclient.New(apiclient.Config{
		BaseURL:         cfg.Client.BaseURL,
		Timeout:         cfg.Client.Timeout.Duration,
		CacheExpiration: cfg.Cache.Expiration.Duration,
		CacheCleanup:    cfg.Cache.Cleanup.Duration,
	}, sess, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, sess, nil
}
