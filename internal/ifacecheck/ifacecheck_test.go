package ifacecheck

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyUnknownInterfaceFails(t *testing.T) {
	_, err := Verify("this-interface-does-not-exist-xyz")
	require.Error(t, err)
}

func TestVerifyAndOwnsLoopback(t *testing.T) {
	ifi, err := net.InterfaceByName("lo")
	if err != nil {
		t.Skip("no loopback interface named \"lo\" on this host")
	}

	verified, err := Verify("lo")
	require.NoError(t, err)
	require.Equal(t, ifi.Name, verified.Name)

	owns, err := Owns(verified, net.ParseIP("127.0.0.1"))
	require.NoError(t, err)
	require.True(t, owns)

	owns, err = Owns(verified, net.ParseIP("203.0.113.1"))
	require.NoError(t, err)
	require.False(t, owns)
}
