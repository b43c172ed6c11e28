package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

func TestConnectProbesIdentity(t *testing.T) {
	router := NewMockRouter("AP-Lobby")

	dev, err := Connect(context.Background(), router, Target{Host: "192.168.88.1"})
	require.NoError(t, err)

	assert.Equal(t, "AP-Lobby", dev.Name)
	assert.Equal(t, "AP-Lobby (192.168.88.1)", dev.String())
	assert.Equal(t, []string{IdentityCommand}, router.Commands())
}

func TestConnectProbeFailureClosesSession(t *testing.T) {
	router := NewMockRouter("AP")
	router.Hook = func(string) (string, string, error, bool) {
		return "", "", errors.New("connection reset"), true
	}

	_, err := Connect(context.Background(), router, Target{Host: "10.0.0.1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConnection))

	_, _, err = router.Run(context.Background(), IdentityCommand)
	assert.Error(t, err, "session should be closed after a failed probe")
}

func TestDeviceProfiles(t *testing.T) {
	router := NewMockRouter("AP")
	dev, err := Connect(context.Background(), router, Target{Host: "h"})
	require.NoError(t, err)

	require.NoError(t, dev.CreateProfile(context.Background(), ProfileSpec{Name: "1h-2M", RateLimit: "2M/2M"}))

	profiles, err := dev.Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "1h-2M"}, profiles)

	err = dev.CreateProfile(context.Background(), ProfileSpec{Name: "1h-2M"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProvisioning))

	err = dev.CreateProfile(context.Background(), ProfileSpec{Name: " "})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeviceProfilesStderr(t *testing.T) {
	router := NewMockRouter("AP")
	dev, err := Connect(context.Background(), router, Target{Host: "h"})
	require.NoError(t, err)

	router.Hook = func(cmd string) (string, string, error, bool) {
		if cmd == ProfilesCommand {
			return "", "not enough permissions", nil, true
		}
		return "", "", nil, false
	}

	_, err = dev.Profiles(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough permissions")
}

func TestMockRouterDuplicateUsers(t *testing.T) {
	router := NewMockRouter("AP")
	router.AddUser("H000001")

	_, stderr, err := router.Run(context.Background(), UserAddCommand("H000001", "", "default", ""))
	require.NoError(t, err)
	assert.True(t, IsDuplicateUser(stderr))

	_, stderr, err = router.Run(context.Background(), UserAddCommand(`we"ird`, "", "default", ""))
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.True(t, router.HasUser(`we"ird`))
	assert.Equal(t, 2, router.UserCount())
}

func TestThrottle(t *testing.T) {
	var nilThrottle *Throttle
	assert.True(t, nilThrottle.Unlimited())
	assert.NoError(t, nilThrottle.Wait(context.Background()))

	unlimited := NewThrottle(0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow())
	}

	limited := NewThrottle(1)
	assert.False(t, limited.Unlimited())
	assert.True(t, limited.Allow())
	assert.False(t, limited.Allow(), "burst of one")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, limited.Wait(ctx), "wait must give up when the context expires first")

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	assert.ErrorIs(t, unlimited.Wait(cancelled), context.Canceled)
}
