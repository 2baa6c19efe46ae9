// Package security guards outbound requests whose destination comes from
// configuration rather than code, namely the notification webhook. Every
// address a host resolves to is checked before dialing, and again on each
// redirect, so the webhook cannot be pointed at loopback, link-local
// metadata endpoints or private networks.
package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"
)

const dnsTimeout = 500 * time.Millisecond

var (
	ErrBlockedAddress   = errors.New("egress: destination address is not allowed")
	ErrDNSTimeout       = errors.New("egress: DNS resolution timed out")
	ErrDNSFailed        = errors.New("egress: DNS resolution failed")
	ErrTooManyRedirects = errors.New("egress: too many redirects")
	ErrInvalidURL       = errors.New("egress: invalid URL")
)

var blockedPrefixes = mustPrefixes(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::/128",
	"::1/128",
	"64:ff9b::/96",
	"fc00::/7",
	"fe80::/10",
)

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

// IsBlocked reports whether addr falls in a loopback, private, link-local,
// multicast or reserved range. IPv4-mapped IPv6 addresses are checked as
// IPv4. The unspecified addresses are blocked since dialing them reaches the
// local host.
func IsBlocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || addr.IsUnspecified() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Guard resolves and vets destinations.
type Guard struct {
	resolver     Resolver
	allowPrivate bool
	dialer       *net.Dialer
}

type Option func(*Guard)

// WithResolver replaces net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(g *Guard) { g.resolver = r }
}

// WithAllowPrivate disables the address checks, for local setups where the
// webhook receiver runs on the same host or network.
func WithAllowPrivate(allow bool) Option {
	return func(g *Guard) { g.allowPrivate = allow }
}

func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		resolver: net.DefaultResolver,
		dialer:   &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateURL checks that raw is an absolute http(s) URL whose host resolves
// only to allowed addresses. Use it to fail fast on bad configuration; the
// dial-time check still applies to every request.
func (g *Guard) ValidateURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	_, err = g.resolve(ctx, u.Hostname())
	return err
}

// HTTPClient returns a client whose connections and redirects go through the
// guard. Proxies are disabled since a proxy would dial on the client's
// behalf.
func (g *Guard) HTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = g.DialContext
	return &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: g.CheckRedirect(maxRedirects),
	}
}

// DialContext resolves addr, rejects it if any resolved address is blocked,
// and dials the first address. Dialing the vetted address rather than the
// name closes the window for DNS rebinding.
func (g *Guard) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, addr, err)
	}
	addrs, err := g.resolve(ctx, host)
	if err != nil {
		return nil, err
	}
	return g.dialer.DialContext(ctx, network, net.JoinHostPort(addrs[0].String(), port))
}

// CheckRedirect vets each redirect target and caps the chain length.
func (g *Guard) CheckRedirect(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: limit is %d", ErrTooManyRedirects, maxRedirects)
		}
		host := req.URL.Hostname()
		if host == "" {
			return fmt.Errorf("%w: redirect without host", ErrInvalidURL)
		}
		_, err := g.resolve(req.Context(), host)
		return err
	}
}

func (g *Guard) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		if !g.allowPrivate && IsBlocked(ip) {
			return nil, fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
		}
		return []netip.Addr{ip}, nil
	}

	dnsCtx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	addrs, err := g.resolver.LookupNetIP(dnsCtx, "ip", host)
	if err != nil {
		if dnsCtx.Err() != nil {
			return nil, fmt.Errorf("%w: host %q", ErrDNSTimeout, host)
		}
		return nil, fmt.Errorf("%w: host %q: %v", ErrDNSFailed, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: host %q has no addresses", ErrDNSFailed, host)
	}

	if !g.allowPrivate {
		// One blocked address rejects the host, even when others are public.
		for _, a := range addrs {
			if IsBlocked(a) {
				return nil, fmt.Errorf("%w: %s (resolved from %s)", ErrBlockedAddress, a, host)
			}
		}
	}
	return addrs, nil
}
