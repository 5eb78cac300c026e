package domaininfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RDAPClient queries an RDAP bootstrap service such as rdap.org, which
// redirects to the authoritative registry.
type RDAPClient struct {
	baseURL string
	client  *http.Client
}

// NewRDAPClient returns a client. A nil client means http.DefaultClient.
func NewRDAPClient(baseURL string, client *http.Client) *RDAPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &RDAPClient{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

type rdapDomain struct {
	Events []rdapEvent `json:"events"`
}

type rdapNetwork struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Handle  string `json:"handle"`
}

// NetworkInfo is the owner of an IP network.
type NetworkInfo struct {
	Name    string
	Country string
}

// RegistrationDate returns the registration event of domain.
func (c *RDAPClient) RegistrationDate(ctx context.Context, domain string) (time.Time, error) {
	var d rdapDomain
	if err := c.get(ctx, "/domain/"+url.PathEscape(domain), &d); err != nil {
		return time.Time{}, err
	}
	for _, ev := range d.Events {
		if ev.Action != "registration" {
			continue
		}
		t, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse registration date %q: %w", ev.Date, err)
		}
		return t, nil
	}
	return time.Time{}, ErrNoRegistrationData
}

// Network returns the registrant of the network containing ip.
func (c *RDAPClient) Network(ctx context.Context, ip string) (*NetworkInfo, error) {
	var n rdapNetwork
	if err := c.get(ctx, "/ip/"+url.PathEscape(ip), &n); err != nil {
		return nil, err
	}
	name := n.Name
	if name == "" {
		name = n.Handle
	}
	return &NetworkInfo{Name: name, Country: n.Country}, nil
}

func (c *RDAPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create RDAP request: %w", err)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RDAP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("RDAP %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode RDAP response: %w", err)
	}
	return nil
}
