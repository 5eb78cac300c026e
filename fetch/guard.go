package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrForbiddenAddress is returned when a URL resolves to an address the
// fetcher may not connect to: loopback, private, link-local, multicast or
// shared address space.
var ErrForbiddenAddress = errors.New("fetch: destination address is not allowed")

// sharedAddressSpace is the carrier-grade NAT range (RFC 6598). netip does
// not count it as private.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPublicAddr reports whether addr is a globally routable unicast address.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate() && !sharedAddressSpace.Contains(addr)
}

// publicOnlyControl is a net.Dialer Control hook. It runs after name
// resolution for every connection, redirects included, so a hostname that
// resolves to an internal address is refused as well.
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	if !IsPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ap.Addr())
	}
	return nil
}

// publicOnlyClient returns a copy of client whose transport dials public
// addresses only. Proxies are disabled so the guard sees the real
// destination.
func publicOnlyClient(client *http.Client) *http.Client {
	var transport *http.Transport
	if t, ok := client.Transport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnlyControl,
	}
	transport.Proxy = nil
	transport.Dial = nil
	transport.DialTLS = nil
	transport.DialTLSContext = nil
	transport.DialContext = dialer.DialContext

	guarded := *client
	guarded.Transport = transport
	return &guarded
}
