// Package hookd implements the Request Dispatcher (§4.2) and the
// Plaintext-Upgrade Policy & Listener Manager (§4.4/§6): binding listening
// endpoints, TLS setup, and the per-connection HTTP pipeline.
package hookd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"

	"github.com/riverhook/hookd/config"
)

// reusableListenConfig sets SO_REUSEADDR/SO_REUSEPORT on every socket it
// binds, so a reloading/restarted hookd process can rebind the same
// (addr, port) pair while the outgoing process's listener is still
// draining its ShutdownGrace period (§9 "graceful shutdown").
var reusableListenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if sockErr == nil {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

// buildListeners binds every (addr, port) in addrs x ports as plaintext,
// and every (addr, securePort) in addrs x securePorts as HTTPS, per §6
// "Listening endpoints". If TLS material is incomplete the secure
// listeners are skipped with a diagnostic; plaintext listeners still
// start (§6, §7 "Config validation").
func buildListeners(cfg *config.ServerConfig) (plain, secure []net.Listener, err error) {
	for _, addr := range cfg.Addrs {
		for _, port := range cfg.Ports {
			ln, e := reusableListenConfig.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", addr, port))
			if e != nil {
				return nil, nil, fmt.Errorf("bind plaintext %s:%d: %w", addr, port, e)
			}
			plain = append(plain, ln)
		}
	}

	if !cfg.TLSEnabled() {
		if cfg.Secure != nil {
			glog.Errorf("secure listeners disabled: TLS certificate and key are both required")
		}
		return plain, nil, nil
	}

	tlsCfg, e := buildTLSConfig(cfg.Secure)
	if e != nil {
		glog.Errorf("secure listeners disabled: %v", e)
		return plain, nil, nil
	}

	for _, addr := range cfg.Addrs {
		for _, port := range cfg.SecurePorts {
			raw, e := reusableListenConfig.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", addr, port))
			if e != nil {
				glog.Errorf("bind secure %s:%d: %v", addr, port, e)
				continue
			}
			secure = append(secure, tls.NewListener(raw, tlsCfg))
		}
	}
	return plain, secure, nil
}

// buildTLSConfig assembles a server-side tls.Config: TLS 1.2+, SNI (the
// default net/http behavior given a single certificate here), and optional
// client-certificate validation against a CA chain (§6).
func buildTLSConfig(sec *config.TLSConfig) (*tls.Config, error) {
	keyPEM, err := os.ReadFile(sec.Key)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", sec.Key, err)
	}
	if sec.KeyPassphrase != "" {
		keyPEM, err = decryptPEM(keyPEM, sec.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypt key %s: %w", sec.Key, err)
		}
	}
	certPEM, err := os.ReadFile(sec.Certificate)
	if err != nil {
		return nil, fmt.Errorf("read certificate %s: %w", sec.Certificate, err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if sec.CAChain != "" {
		caPEM, err := os.ReadFile(sec.CAChain)
		if err != nil {
			return nil, fmt.Errorf("read ca_chain %s: %w", sec.CAChain, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("ca_chain %s: no certificates parsed", sec.CAChain)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return tlsCfg, nil
}
