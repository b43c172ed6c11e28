package device

import (
	"context"
	"strings"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

// Device is a connected access point. It implements Session so the
// generation engine can provision through it directly.
type Device struct {
	Name   string
	Target Target

	sess Session
}

// Connect dials target and probes the router identity. The probe doubles
// as a check that the session can actually run commands.
func Connect(ctx context.Context, dialer Dialer, target Target) (*Device, error) {
	sess, err := dialer.Dial(ctx, target)
	if err != nil {
		return nil, err
	}

	out, _, err := sess.Run(ctx, IdentityCommand)
	if err != nil {
		sess.Close()
		return nil, apperrors.NewConnectionError("probe identity on "+target.Addr(), err)
	}

	return &Device{
		Name:   ParseIdentity(out),
		Target: target,
		sess:   sess,
	}, nil
}

// Run forwards to the underlying session.
func (d *Device) Run(ctx context.Context, command string) (string, string, error) {
	return d.sess.Run(ctx, command)
}

// Close releases the connection.
func (d *Device) Close() error {
	return d.sess.Close()
}

// Profiles lists hotspot user profiles. A device that prints nothing usable
// still yields the default profile.
func (d *Device) Profiles(ctx context.Context) ([]string, error) {
	out, stderr, err := d.sess.Run(ctx, ProfilesCommand)
	if err != nil {
		return nil, err
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return nil, apperrors.NewProvisioningError("list profiles", msg)
	}
	return ParseProfiles(out), nil
}

// CreateProfile adds a hotspot user profile.
func (d *Device) CreateProfile(ctx context.Context, spec ProfileSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return apperrors.NewValidationError("profile name cannot be empty")
	}
	_, stderr, err := d.sess.Run(ctx, ProfileAddCommand(spec))
	if err != nil {
		return err
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return apperrors.NewProvisioningError("create profile "+spec.Name, msg)
	}
	return nil
}

// String identifies the device for status lines.
func (d *Device) String() string {
	return d.Name + " (" + d.Target.Host + ")"
}
