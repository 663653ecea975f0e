package mirror

import (
	"net"
	"net/url"
	"time"
)

// NetProber answers Online by attempting a TCP dial to the backend host.
// It is the daemon's stand-in for the browser's connectivity signal:
// cheap, best-effort, and only consulted to decide whether a refresh
// should even try the network.
type NetProber struct {
	addr    string
	timeout time.Duration
}

// NewNetProber builds a probe against the host of the API base URL.
func NewNetProber(apiBaseURL string) (*NetProber, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, err
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	return &NetProber{addr: host, timeout: 2 * time.Second}, nil
}

// Online reports whether the backend host currently accepts connections.
func (p *NetProber) Online() bool {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Always is a fixed-answer probe for tests and forced-offline runs.
type Always bool

func (a Always) Online() bool { return bool(a) }
