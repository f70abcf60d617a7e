package socks5

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	conn net.Conn
	host string
	port int
	err  error
}

func (f *fakeDialer) Dial(_ context.Context, host string, port int) (net.Conn, error) {
	f.host = host
	f.port = port
	return f.conn, f.err
}

func noopRelay(_ context.Context, _, _ net.Conn) error { return nil }

// TestConnectSuccessReply exercises spec.md §8 scenario 3: greeting
// 05 01 00, then a CONNECT request for 127.0.0.1:8080, replies with the
// fixed 10-byte success message.
func TestConnectSuccessReply(t *testing.T) {
	client, clientPeer := net.Pipe()
	upstream, _ := net.Pipe()
	fd := &fakeDialer{conn: upstream}

	relayed := make(chan struct{})
	relay := func(_ context.Context, _, _ net.Conn) error {
		close(relayed)
		return nil
	}

	go Handle(context.Background(), client, fd, nil, time.Second, relay)

	clientPeer.Write([]byte{0x05, 0x01, 0x00})
	var methodReply [2]byte
	clientPeer.Read(methodReply[:])
	require.Equal(t, []byte{0x05, 0x00}, methodReply[:])

	clientPeer.Write([]byte{0x05, 0x01, 0x00, 0x01, 0x7F, 0x00, 0x00, 0x01, 0x1F, 0x90})

	var reply [10]byte
	_, err := clientPeer.Read(reply[:])
	require.NoError(t, err)
	require.Equal(t, []byte{0x05, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, reply[:])
	require.Equal(t, "127.0.0.1", fd.host)
	require.Equal(t, 8080, fd.port)

	<-relayed
}

// TestAuthSuccess exercises spec.md §8 scenario 4: with credentials
// configured, greeting 05 01 02, subneg carrying "alice"/"s3cret"
// succeeds with 05 02 then 01 00.
func TestAuthSuccess(t *testing.T) {
	client, clientPeer := net.Pipe()
	upstream, _ := net.Pipe()
	fd := &fakeDialer{conn: upstream}
	creds := &Credentials{User: "alice", Pass: "s3cret"}

	go Handle(context.Background(), client, fd, creds, time.Second, noopRelay)

	clientPeer.Write([]byte{0x05, 0x01, 0x02})
	var methodReply [2]byte
	clientPeer.Read(methodReply[:])
	require.Equal(t, []byte{0x05, 0x02}, methodReply[:])

	subneg := []byte{0x01, 5, 'a', 'l', 'i', 'c', 'e', 6, 's', '3', 'c', 'r', 'e', 't'}
	clientPeer.Write(subneg)

	var authReply [2]byte
	_, err := clientPeer.Read(authReply[:])
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x00}, authReply[:])
}

// TestAuthNegation exercises spec.md §8's auth-negation property: a
// client offering only method 0x00 when credentials are configured
// receives 05 FF and the connection fails.
func TestAuthNegation(t *testing.T) {
	client, clientPeer := net.Pipe()
	fd := &fakeDialer{}
	creds := &Credentials{User: "alice", Pass: "s3cret"}

	errCh := make(chan error, 1)
	go func() {
		errCh <- Handle(context.Background(), client, fd, creds, time.Second, noopRelay)
	}()

	clientPeer.Write([]byte{0x05, 0x01, 0x00})
	var methodReply [2]byte
	clientPeer.Read(methodReply[:])
	require.Equal(t, []byte{0x05, 0xFF}, methodReply[:])

	err := <-errCh
	require.Error(t, err)
}

// TestUDPAssociateRejected exercises spec.md §8 scenario 5: CMD=0x03
// closes the connection without a success reply.
func TestUDPAssociateRejected(t *testing.T) {
	client, clientPeer := net.Pipe()
	fd := &fakeDialer{}

	errCh := make(chan error, 1)
	go func() {
		errCh <- Handle(context.Background(), client, fd, nil, time.Second, noopRelay)
	}()

	clientPeer.Write([]byte{0x05, 0x01, 0x00})
	var methodReply [2]byte
	clientPeer.Read(methodReply[:])

	clientPeer.Write([]byte{0x05, 0x03, 0x00, 0x01, 0x7F, 0x00, 0x00, 0x01, 0x00, 0x50})

	err := <-errCh
	require.Error(t, err)
	require.Contains(t, err.Error(), "UDP ASSOC not supported")
}

// TestUnsupportedATYP verifies an unknown ATYP fails the connection.
func TestUnsupportedATYP(t *testing.T) {
	client, clientPeer := net.Pipe()
	fd := &fakeDialer{}

	errCh := make(chan error, 1)
	go func() {
		errCh <- Handle(context.Background(), client, fd, nil, time.Second, noopRelay)
	}()

	clientPeer.Write([]byte{0x05, 0x01, 0x00})
	var methodReply [2]byte
	clientPeer.Read(methodReply[:])

	clientPeer.Write([]byte{0x05, 0x01, 0x00, 0x05})

	err := <-errCh
	require.Error(t, err)
}
