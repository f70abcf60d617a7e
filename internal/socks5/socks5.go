// Package socks5 implements the SOCKS5 front-end (C6): RFC 1928 CONNECT
// plus RFC 1929 username/password subnegotiation.
//
// The greeting/request parsing with fixed-size stack buffers is grounded
// directly in Ealireza-SuperProxy/proxy.go's handleConnection. The
// optional username/password subnegotiation is grounded in
// original_source/src/util.rs::handle_socks5, which the teacher's proxy
// (a no-auth-only SOCKS5 server) never implemented.
package socks5

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	version5 = 0x05

	methodNoAuth       = 0x00
	methodUserPass     = 0x02
	methodNoAcceptable = 0xFF

	authSubnegotiationVersion = 0x01
	authSuccess               = 0x00
	authFailure               = 0x01

	cmdConnect      = 0x01
	cmdUDPAssociate = 0x03

	atypIPv4   = 0x01
	atypDomain = 0x03
	atypIPv6   = 0x04
)

// successReply is the fixed 10-byte success message spec.md §4.6/§6
// mandates: REP=0, BND.ADDR=0.0.0.0, BND.PORT=0.
var successReply = [10]byte{version5, 0x00, 0x00, atypIPv4, 0, 0, 0, 0, 0, 0}

// Credentials is the optional username/password pair from ProxyConfig.
type Credentials struct {
	User string
	Pass string
}

// Dialer is the subset of the outbound dialer (C2) the SOCKS5 front-end
// needs.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (net.Conn, error)
}

// Relayer runs the bidirectional byte relay (C4) for a successfully
// established connection.
type Relayer func(ctx context.Context, client, upstream net.Conn) error

func readFull(conn net.Conn, buf []byte, timeout time.Duration) error {
	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	_, err := io.ReadFull(conn, buf)
	if err != nil && isTimeout(err) {
		return fmt.Errorf("read timeout: %w", err)
	}
	return err
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

// Handle drives the SOCKS5 state machine for a single accepted client
// connection: GREETING, METHOD_SELECT, optional SUBNEGOTIATION, REQUEST,
// CMD dispatch.
func Handle(ctx context.Context, client net.Conn, d Dialer, creds *Credentials, handshakeTimeout time.Duration, relay Relayer) error {
	defer client.SetReadDeadline(time.Time{})

	// GREETING
	var hdr [2]byte
	if err := readFull(client, hdr[:], handshakeTimeout); err != nil {
		return err
	}
	if hdr[0] != version5 {
		return fmt.Errorf("invalid SOCKS5 version in greeting")
	}
	nmethods := int(hdr[1])
	methods := make([]byte, nmethods)
	if nmethods > 0 {
		if err := readFull(client, methods, handshakeTimeout); err != nil {
			return err
		}
	}

	// METHOD_SELECT
	if creds != nil {
		if !containsByte(methods, methodUserPass) {
			client.Write([]byte{version5, methodNoAcceptable})
			return fmt.Errorf("client doesn't support username/password auth")
		}
		if _, err := client.Write([]byte{version5, methodUserPass}); err != nil {
			return err
		}
		if err := subnegotiate(client, creds, handshakeTimeout); err != nil {
			return err
		}
	} else {
		if _, err := client.Write([]byte{version5, methodNoAuth}); err != nil {
			return err
		}
	}

	// REQUEST
	var reqHdr [4]byte
	if err := readFull(client, reqHdr[:], handshakeTimeout); err != nil {
		return err
	}
	if reqHdr[0] != version5 {
		return fmt.Errorf("invalid SOCKS5 version in request")
	}
	cmd := reqHdr[1]
	atyp := reqHdr[3]

	host, port, err := readDestAddr(client, atyp, handshakeTimeout)
	if err != nil {
		return err
	}

	switch cmd {
	case cmdConnect:
		upstream, dialErr := d.Dial(ctx, host, port)
		if dialErr != nil {
			return fmt.Errorf("connect %s:%d: %w", host, port, dialErr)
		}
		defer upstream.Close()

		// The handshake deadline must not carry over into the relay.
		client.SetReadDeadline(time.Time{})
		if _, err := client.Write(successReply[:]); err != nil {
			return err
		}
		return relay(ctx, client, upstream)

	case cmdUDPAssociate:
		return fmt.Errorf("UDP ASSOC not supported")

	default:
		return fmt.Errorf("Unsupported CMD")
	}
}

func subnegotiate(client net.Conn, creds *Credentials, timeout time.Duration) error {
	var verByte [1]byte
	if err := readFull(client, verByte[:], timeout); err != nil {
		return err
	}
	if verByte[0] != authSubnegotiationVersion {
		return fmt.Errorf("invalid auth subnegotiation version")
	}

	var ulenByte [1]byte
	if err := readFull(client, ulenByte[:], timeout); err != nil {
		return err
	}
	uname := make([]byte, ulenByte[0])
	if len(uname) > 0 {
		if err := readFull(client, uname, timeout); err != nil {
			return err
		}
	}

	var plenByte [1]byte
	if err := readFull(client, plenByte[:], timeout); err != nil {
		return err
	}
	passwd := make([]byte, plenByte[0])
	if len(passwd) > 0 {
		if err := readFull(client, passwd, timeout); err != nil {
			return err
		}
	}

	ok := string(uname) == creds.User && string(passwd) == creds.Pass
	if !ok {
		client.Write([]byte{authSubnegotiationVersion, authFailure})
		return fmt.Errorf("invalid username/password")
	}
	_, err := client.Write([]byte{authSubnegotiationVersion, authSuccess})
	return err
}

func readDestAddr(client net.Conn, atyp byte, timeout time.Duration) (string, int, error) {
	var host string

	switch atyp {
	case atypIPv4:
		var addr [4]byte
		if err := readFull(client, addr[:], timeout); err != nil {
			return "", 0, err
		}
		host = net.IP(addr[:]).String()

	case atypDomain:
		var lenByte [1]byte
		if err := readFull(client, lenByte[:], timeout); err != nil {
			return "", 0, err
		}
		domain := make([]byte, lenByte[0])
		if len(domain) > 0 {
			if err := readFull(client, domain, timeout); err != nil {
				return "", 0, err
			}
		}
		host = string(domain)

	case atypIPv6:
		var addr [16]byte
		if err := readFull(client, addr[:], timeout); err != nil {
			return "", 0, err
		}
		host = net.IP(addr[:]).String()

	default:
		return "", 0, fmt.Errorf("Unsupported ATYP")
	}

	var portBuf [2]byte
	if err := readFull(client, portBuf[:], timeout); err != nil {
		return "", 0, err
	}
	port := int(binary.BigEndian.Uint16(portBuf[:]))

	return host, port, nil
}

func containsByte(haystack []byte, needle byte) bool {
	for _, b := range haystack {
		if b == needle {
			return true
		}
	}
	return false
}
