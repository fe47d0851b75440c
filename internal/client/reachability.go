package client

import (
	"net"
	"net/url"
	"time"
)

// Reachability answers whether a network path to the backend currently
// exists. It is consulted synchronously before each request.
type Reachability interface {
	Reachable() bool
}

// ReachabilityFunc adapts a plain function to Reachability.
type ReachabilityFunc func() bool

func (f ReachabilityFunc) Reachable() bool { return f() }

// DialProbe treats the backend as reachable when a TCP connection to its
// host can be established within Timeout.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

// NewDialProbe derives the dial address from baseURL, defaulting the port
// from the scheme.
func NewDialProbe(baseURL string, timeout time.Duration) *DialProbe {
	return &DialProbe{Addr: dialAddr(baseURL), Timeout: timeout}
}

func (p *DialProbe) Reachable() bool {
	if p.Addr == "" {
		return false
	}
	conn, err := net.DialTimeout("tcp", p.Addr, p.Timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func dialAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
