// Command ifaceproxy is a local forward proxy that pins every outbound
// connection to a named network interface. It accepts HTTP/1.x proxy
// connections (absolute-URI requests and CONNECT) and SOCKS5 connections
// on independent listeners.
//
// This generalizes Ealireza-SuperProxy/main.go's flag parsing,
// startup-summary logging, and signal-driven shutdown to the richer
// ProxyConfig spec.md §3 defines, and replaces the teacher's
// single-purpose "-config"/"-t" flag pair with the full CLI surface
// spec.md §6 specifies via spf13/pflag.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ealireza/ifaceproxy/internal/config"
	"github.com/ealireza/ifaceproxy/internal/dialer"
	"github.com/ealireza/ifaceproxy/internal/httpproxy"
	"github.com/ealireza/ifaceproxy/internal/ifacecheck"
	"github.com/ealireza/ifaceproxy/internal/listener"
	"github.com/ealireza/ifaceproxy/internal/logging"
	"github.com/ealireza/ifaceproxy/internal/relay"
	"github.com/ealireza/ifaceproxy/internal/rlimit"
	"github.com/ealireza/ifaceproxy/internal/socks5"
)

// version is stamped at build time via -ldflags, falling back to
// environment variables per spec.md §6.
var version = "dev"

func resolvedVersion() string {
	if version != "dev" {
		return version
	}
	if v := os.Getenv("IFACE_PROXY_VERSION"); v != "" {
		return v
	}
	if v := os.Getenv("GITHUB_REF_NAME"); v != "" {
		return v
	}
	return "dev"
}

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "path to YAML config file")
		iface       = pflag.StringP("iface", "i", "", "network interface to bind outbound connections to")
		listenAddr  = pflag.StringP("listen", "l", "", "HTTP proxy listen address")
		socksAddr   = pflag.StringP("socks5-listen", "S", "", "SOCKS5 proxy listen address")
		socksUser   = pflag.String("socks5-user", "", "SOCKS5 username (enables auth)")
		socksPass   = pflag.String("socks5-pass", "", "SOCKS5 password (enables auth)")
		noSocks5    = pflag.Bool("no-socks5", false, "disable the SOCKS5 listener")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("ifaceproxy %s\n", resolvedVersion())
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ifaceproxy: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *iface != "" {
		cfg.Iface = *iface
	}
	if *listenAddr != "" {
		cfg.HTTPListenAddr = *listenAddr
	}
	if *socksAddr != "" {
		cfg.SOCKS5ListenAddr = *socksAddr
	}
	if *socksUser != "" {
		cfg.SOCKS5User = *socksUser
	}
	if *socksPass != "" {
		cfg.SOCKS5Pass = *socksPass
	}
	if *noSocks5 {
		cfg.NoSOCKS5 = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ifaceproxy: %v\n", err)
		os.Exit(1)
	}

	if _, err := ifacecheck.Verify(cfg.Iface); err != nil {
		fmt.Fprintf(os.Stderr, "ifaceproxy: %v\n", err)
		os.Exit(1)
	}

	lg := logging.Default()
	lg.Info("ifaceproxy %s starting, GOMAXPROCS=%d", resolvedVersion(), runtime.GOMAXPROCS(0))
	lg.Info("interface: %s", cfg.Iface)

	raiseFileLimit(lg, int64(cfg.MaxConcurrentConnections)*2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := dialer.New(cfg.Iface)
	handshakeTimeout := time.Duration(cfg.HandshakeReadTimeoutMS) * time.Millisecond
	sessionTimeout := time.Duration(cfg.SessionTimeoutMS) * time.Millisecond

	relayFn := func(ctx context.Context, client, upstream net.Conn) error {
		_, err := relay.WithSessionTimeout(ctx, sessionTimeout, client, upstream)
		return err
	}

	errCh := make(chan error, 2)

	httpHandler := func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		if err := httpproxy.Handle(ctx, conn, d, handshakeTimeout, relayFn); err != nil {
			lg.ThrottledError("HTTP handler error: %v", err)
		}
	}
	httpListener := listener.New("HTTP", cfg.Iface, int64(cfg.MaxConcurrentConnections), lg, httpHandler)

	go func() {
		if err := httpListener.Run(ctx, cfg.HTTPListenAddr); err != nil {
			errCh <- fmt.Errorf("HTTP listener: %w", err)
		}
	}()

	if cfg.SOCKS5Enabled() {
		var creds *socks5.Credentials
		if cfg.HasSOCKS5Credentials() {
			creds = &socks5.Credentials{User: cfg.SOCKS5User, Pass: cfg.SOCKS5Pass}
		}

		socksHandler := func(ctx context.Context, conn net.Conn) {
			defer conn.Close()
			if err := socks5.Handle(ctx, conn, d, creds, handshakeTimeout, relayFn); err != nil {
				lg.ThrottledError("SOCKS5 handler error: %v", err)
			}
		}
		socksListener := listener.New("SOCKS5", cfg.Iface, int64(cfg.MaxConcurrentConnections), lg, socksHandler)

		go func() {
			if err := socksListener.Run(ctx, cfg.SOCKS5ListenAddr); err != nil {
				errCh <- fmt.Errorf("SOCKS5 listener: %w", err)
			}
		}()
	}

	lg.Info("all proxies running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("received signal %s, shutting down...", sig)
	case err := <-errCh:
		lg.Error("fatal: %v", err)
		os.Exit(1)
	}
}

// raiseFileLimit best-effort raises the open-file limit to accommodate
// want open files, generalizing
// original_source/src/util.rs::try_raise_nofile_limit.
func raiseFileLimit(lg *logging.Logger, want int64) {
	st := rlimit.Raise(want)
	if !st.Attempted {
		return
	}
	if st.Err != nil {
		lg.Info("NOFILE raise attempt failed; current soft=%d, hard=%d", st.SoftBefore, st.HardBefore)
		return
	}
	if st.Raised {
		lg.Info("NOFILE limit: soft=%d hard=%d", st.SoftAfter, st.HardAfter)
	}
}
