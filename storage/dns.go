package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/ruteri/fincrypt/interfaces"
)

// DNSKeyStore looks up public keys published as TXT records at
// <name>.<zone>. Records longer than one character-string are split into
// several strings and joined on read.
type DNSKeyStore struct {
	client      *dns.Client
	server      string
	zone        string
	log         *slog.Logger
	locationURI string
}

// NewDNSKeyStore creates a key store querying server (host:port) for TXT
// records below zone. An empty server uses the first nameserver from
// /etc/resolv.conf.
func NewDNSKeyStore(server, zone, network string, timeout time.Duration, log *slog.Logger) (*DNSKeyStore, error) {
	zone = strings.Trim(zone, ".")
	if zone == "" {
		return nil, fmt.Errorf("%w: missing DNS zone", interfaces.ErrInvalidLocationURI)
	}
	if _, ok := dns.IsDomainName(zone); !ok {
		return nil, fmt.Errorf("%w: invalid DNS zone %q", interfaces.ErrInvalidLocationURI, zone)
	}

	if server == "" {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil || len(conf.Servers) == 0 {
			return nil, fmt.Errorf("%w: no DNS server configured", interfaces.ErrInvalidLocationURI)
		}
		server = net.JoinHostPort(conf.Servers[0], conf.Port)
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if network == "" {
		network = "udp"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &DNSKeyStore{
		client:      &dns.Client{Net: network, Timeout: timeout},
		server:      server,
		zone:        zone,
		log:         log,
		locationURI: fmt.Sprintf("dns://%s/%s", server, zone),
	}, nil
}

// Fetch resolves the TXT record of a public key.
func (b *DNSKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	if role != interfaces.PublicRole {
		return nil, fmt.Errorf("%w: %s keys are not served from DNS", interfaces.ErrRoleUnsupported, role)
	}
	if err := interfaces.ValidateKeyName(name); err != nil {
		return nil, err
	}
	if !isDNSLabel(name) {
		return nil, fmt.Errorf("%w: %q is not a DNS label", interfaces.ErrInvalidKeyName, name)
	}
	fqdn := dns.Fqdn(name + "." + b.zone)

	start := time.Now()
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeTXT)
	msg.SetEdns0(4096, false)

	resp, _, err := b.client.ExchangeContext(ctx, msg, b.server)
	if err == nil && resp.Truncated && b.client.Net == "udp" {
		// Key files rarely fit a datagram; retry over TCP.
		tcp := &dns.Client{Net: "tcp", Timeout: b.client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, b.server)
	}
	if err != nil {
		b.log.Warn("DNS query failed",
			slog.String("name", fqdn),
			slog.String("server", b.server),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("%w: public key %q", interfaces.ErrKeyNotFound, name)
	default:
		return nil, fmt.Errorf("%w: DNS rcode %s", interfaces.ErrBackendUnavailable, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			b.log.Debug("Fetched key from DNS",
				slog.String("name", fqdn),
				slog.Duration("duration", time.Since(start)))
			return []byte(strings.Join(txt.Txt, "")), nil
		}
	}
	return nil, fmt.Errorf("%w: public key %q has no TXT record", interfaces.ErrKeyNotFound, name)
}

// List is not supported; zones cannot be enumerated over plain queries.
func (b *DNSKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	return nil, interfaces.ErrListUnsupported
}

// Available checks that the server answers an SOA query for the zone.
func (b *DNSKeyStore) Available(ctx context.Context) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(b.zone), dns.TypeSOA)

	resp, _, err := b.client.ExchangeContext(ctx, msg, b.server)
	if err != nil {
		b.log.Debug("DNS key store unavailable", "err", err)
		return false
	}
	return resp.Rcode != dns.RcodeServerFailure && resp.Rcode != dns.RcodeRefused
}

// Name returns a unique identifier for this key store.
func (b *DNSKeyStore) Name() string {
	return fmt.Sprintf("dns-%s", b.zone)
}

// LocationURI returns the URI that identifies this key store.
func (b *DNSKeyStore) LocationURI() string {
	return b.locationURI
}

// isDNSLabel accepts host-name style labels plus underscores.
func isDNSLabel(name string) bool {
	if len(name) == 0 || len(name) > 63 || name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
