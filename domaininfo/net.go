package domaininfo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"seotools/logging"
)

// Resolver is the subset of *net.Resolver used for lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// Unknown is reported when a lookup has no answer.
const Unknown = "Unknown"

// NetInfo answers from live DNS and RDAP. Authority scores have no public
// source and are placeholders.
type NetInfo struct {
	resolver Resolver
	rdap     *RDAPClient
	logger   *logging.Logger
	now      func() time.Time
}

// NewNetInfo wires a provider. A nil resolver means net.DefaultResolver and
// a nil logger disables logging.
func NewNetInfo(resolver Resolver, rdap *RDAPClient, logger *logging.Logger) *NetInfo {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NetInfo{resolver: resolver, rdap: rdap, logger: logger.Named("domaininfo"), now: time.Now}
}

func (n *NetInfo) Age(ctx context.Context, domain string) (*AgeInfo, error) {
	host, err := Normalize(domain)
	if err != nil {
		return nil, err
	}
	registered, err := n.rdap.RegistrationDate(ctx, registrableDomain(host))
	if err != nil {
		return nil, fmt.Errorf("registration date for %s: %w", host, err)
	}
	return &AgeInfo{
		Domain:           host,
		RegistrationDate: registered.UTC().Format(RegistrationDateLayout),
		Age:              FormatAge(registered, n.now()),
	}, nil
}

func (n *NetInfo) Authority(ctx context.Context, domain string) (*AuthorityInfo, error) {
	host, err := Normalize(domain)
	if err != nil {
		return nil, err
	}
	return placeholderAuthority(host), nil
}

func (n *NetInfo) IP(ctx context.Context, domain string) (*IPInfo, error) {
	host, err := Normalize(domain)
	if err != nil {
		return nil, err
	}
	addrs, err := n.addresses(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}

	info := &IPInfo{Domain: host, IPAddress: addrs[0], Location: Unknown, ISP: Unknown}
	if network := n.network(ctx, addrs[0]); network != nil {
		info.Location = orUnknown(network.Country)
		info.ISP = orUnknown(network.Name)
	}
	return info, nil
}

func (n *NetInfo) Hosting(ctx context.Context, domain string) (*HostingInfo, error) {
	host, err := Normalize(domain)
	if err != nil {
		return nil, err
	}
	ns, err := n.nameservers(ctx, registrableDomain(host))
	if err != nil {
		return nil, err
	}

	info := &HostingInfo{Domain: host, HostingProvider: Unknown, Nameservers: ns, Country: Unknown}
	addrs, err := n.addresses(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) > 0 {
		if network := n.network(ctx, addrs[0]); network != nil {
			info.HostingProvider = orUnknown(network.Name)
			info.Country = orUnknown(network.Country)
		}
	}
	return info, nil
}

func (n *NetInfo) Records(ctx context.Context, domain string) (*RecordsInfo, error) {
	host, err := Normalize(domain)
	if err != nil {
		return nil, err
	}

	a, err := n.addresses(ctx, host)
	if err != nil {
		return nil, err
	}

	mxs, err := n.resolver.LookupMX(ctx, host)
	if err = ignoreNotFound(err); err != nil {
		return nil, fmt.Errorf("lookup MX %s: %w", host, err)
	}
	mx := make([]string, 0, len(mxs))
	for _, m := range mxs {
		mx = append(mx, strings.TrimSuffix(m.Host, "."))
	}

	txt, err := n.resolver.LookupTXT(ctx, host)
	if err = ignoreNotFound(err); err != nil {
		return nil, fmt.Errorf("lookup TXT %s: %w", host, err)
	}
	if txt == nil {
		txt = []string{}
	}

	ns, err := n.nameservers(ctx, host)
	if err != nil {
		return nil, err
	}

	return &RecordsInfo{Domain: host, Records: Records{A: a, MX: mx, TXT: txt, NS: ns}}, nil
}

// addresses returns the IPv4 addresses of host, sorted.
func (n *NetInfo) addresses(ctx context.Context, host string) ([]string, error) {
	hosts, err := n.resolver.LookupHost(ctx, host)
	if err = ignoreNotFound(err); err != nil {
		return nil, fmt.Errorf("lookup A %s: %w", host, err)
	}
	a := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil && ip.To4() != nil {
			a = append(a, h)
		}
	}
	sort.Strings(a)
	return a, nil
}

func (n *NetInfo) nameservers(ctx context.Context, host string) ([]string, error) {
	records, err := n.resolver.LookupNS(ctx, host)
	if err = ignoreNotFound(err); err != nil {
		return nil, fmt.Errorf("lookup NS %s: %w", host, err)
	}
	ns := make([]string, 0, len(records))
	for _, r := range records {
		ns = append(ns, strings.TrimSuffix(r.Host, "."))
	}
	sort.Strings(ns)
	return ns, nil
}

// network looks up the RDAP owner of ip. Failures only cost the
// location fields, so they are logged and swallowed.
func (n *NetInfo) network(ctx context.Context, ip string) *NetworkInfo {
	info, err := n.rdap.Network(ctx, ip)
	if err != nil {
		n.logger.Warn("RDAP network lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	return info
}

func ignoreNotFound(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return nil
	}
	return err
}

// registrableDomain strips a leading "www." so registry lookups hit the
// registered name.
func registrableDomain(host string) string {
	return strings.TrimPrefix(host, "www.")
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
