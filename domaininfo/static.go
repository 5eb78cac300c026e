package domaininfo

import "context"

// StaticInfo returns fixed sample values for every domain. It needs no
// network access and is selected with DOMAIN_PROVIDER=static.
type StaticInfo struct{}

// Sample values reported by StaticInfo.
var (
	SampleIP          = "192.168.1.1"
	SampleNameservers = []string{"ns1.example.com", "ns2.example.com"}
)

func (StaticInfo) Age(ctx context.Context, domain string) (*AgeInfo, error) {
	return &AgeInfo{Domain: domain, RegistrationDate: "2020-01-01", Age: "3 years, 2 months"}, nil
}

func (StaticInfo) Authority(ctx context.Context, domain string) (*AuthorityInfo, error) {
	return placeholderAuthority(domain), nil
}

func (StaticInfo) IP(ctx context.Context, domain string) (*IPInfo, error) {
	return &IPInfo{Domain: domain, IPAddress: SampleIP, Location: "United States", ISP: "Example ISP"}, nil
}

func (StaticInfo) Hosting(ctx context.Context, domain string) (*HostingInfo, error) {
	return &HostingInfo{
		Domain:          domain,
		HostingProvider: "Example Hosting",
		Nameservers:     append([]string(nil), SampleNameservers...),
		Country:         "United States",
	}, nil
}

func (StaticInfo) Records(ctx context.Context, domain string) (*RecordsInfo, error) {
	return &RecordsInfo{
		Domain: domain,
		Records: Records{
			A:   []string{SampleIP},
			MX:  []string{"mail.example.com"},
			TXT: []string{"v=spf1 include:_spf.example.com ~all"},
			NS:  append([]string(nil), SampleNameservers...),
		},
	}, nil
}

// There is no free authority data source, so both providers report the
// same scores.
func placeholderAuthority(domain string) *AuthorityInfo {
	return &AuthorityInfo{Domain: domain, DomainAuthority: 45, PageAuthority: 38, SpamScore: 1}
}
