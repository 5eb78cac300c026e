// Package domaininfo answers the domain tools: registration age, authority
// scores, IP, hosting and DNS records.
package domaininfo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidDomain is returned when a domain cannot be normalized to a hostname.
	ErrInvalidDomain = errors.New("domaininfo: invalid domain name")

	// ErrNoRegistrationData is returned when RDAP has no registration event.
	ErrNoRegistrationData = errors.New("domaininfo: no registration date available")
)

// AgeInfo is the domain-age result.
type AgeInfo struct {
	Domain           string `json:"domain"`
	RegistrationDate string `json:"registrationDate"`
	Age              string `json:"age"`
}

// AuthorityInfo is the domain-authority result.
type AuthorityInfo struct {
	Domain          string `json:"domain"`
	DomainAuthority int    `json:"domainAuthority"`
	PageAuthority   int    `json:"pageAuthority"`
	SpamScore       int    `json:"spamScore"`
}

// IPInfo is the domain-ip result.
type IPInfo struct {
	Domain    string `json:"domain"`
	IPAddress string `json:"ipAddress"`
	Location  string `json:"location"`
	ISP       string `json:"isp"`
}

// HostingInfo is the domain-hosting result.
type HostingInfo struct {
	Domain          string   `json:"domain"`
	HostingProvider string   `json:"hostingProvider"`
	Nameservers     []string `json:"nameservers"`
	Country         string   `json:"country"`
}

// Records holds the DNS records of one domain.
type Records struct {
	A   []string `json:"a"`
	MX  []string `json:"mx"`
	TXT []string `json:"txt"`
	NS  []string `json:"ns"`
}

// RecordsInfo is the dns-records result.
type RecordsInfo struct {
	Domain  string  `json:"domain"`
	Records Records `json:"records"`
}

// RegistrationDateLayout formats registration dates.
const RegistrationDateLayout = "2006-01-02"

// Normalize reduces user input such as "https://www.Example.com:443/path"
// to a bare lowercase hostname.
func Normalize(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", ErrInvalidDomain
	}
	if !strings.Contains(d, "://") {
		d = "http://" + d
	}
	u, err := url.Parse(d)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if !validHostname(host) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return host, nil
}

func validHostname(host string) bool {
	if host == "" || len(host) > 253 || !strings.Contains(host, ".") {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}

// FormatAge renders the time between registered and now as
// "3 years, 2 months".
func FormatAge(registered, now time.Time) string {
	if now.Before(registered) {
		return "0 years, 0 months"
	}
	months := (now.Year()-registered.Year())*12 + int(now.Month()) - int(registered.Month())
	if now.Day() < registered.Day() {
		months--
	}
	return plural(months/12, "year") + ", " + plural(months%12, "month")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
