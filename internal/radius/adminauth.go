package radius

import (
	"context"
	"log/slog"
	"time"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// AdminAuthenticator authenticates admin-API logins against a single
// RADIUS (RFC 2865) server: one server, one shared secret, every
// accepted login granted the "admin" role.
type AdminAuthenticator struct {
	address       string
	secret        string
	nasIdentifier string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewAdminAuthenticator builds an authenticator for the admin API login
// endpoint.
func NewAdminAuthenticator(address, secret, nasIdentifier string, logger *slog.Logger) *AdminAuthenticator {
	return &AdminAuthenticator{
		address:       address,
		secret:        secret,
		nasIdentifier: nasIdentifier,
		timeout:       5 * time.Second,
		logger:        logger,
	}
}

// Authenticate implements api.RadiusAuthenticator.
func (a *AdminAuthenticator) Authenticate(username, password string) (string, bool) {
	packet := radius.New(radius.CodeAccessRequest, []byte(a.secret))
	rfc2865.UserName_SetString(packet, username)
	rfc2865.UserPassword_SetString(packet, password)
	if a.nasIdentifier != "" {
		rfc2865.NASIdentifier_SetString(packet, a.nasIdentifier)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	resp, err := radius.Exchange(ctx, packet, a.address)
	if err != nil {
		a.logger.Warn("radius admin auth failed", "username", username, "error", err)
		return "", false
	}
	if resp.Code != radius.CodeAccessAccept {
		return "", false
	}
	return "admin", true
}
