package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNS diagnostics for DOWN verdicts with no HTTP response: a quick
// classification of whether the host resolves at all, so alert bodies
// can say "NXDOMAIN" instead of a generic dial error.

var dnsTimeout = 3 * time.Second

const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

// ClassifyDNS resolves the host and buckets the outcome. Best effort;
// it never blocks longer than dnsTimeout.
func ClassifyDNS(ctx context.Context, host string) string {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return DNSInvalidName
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", host)
	if err == nil && len(ips) > 0 {
		return DNSResolves
	}

	var de *net.DNSError
	if errors.As(err, &de) {
		if de.IsNotFound {
			// host may still have NS records (parked zone)
			if ns, nsErr := r.LookupNS(ctx, host); nsErr == nil && len(ns) > 0 {
				return DNSNoARecord
			}
			return DNSNXDomain
		}
		if de.IsTemporary || de.Timeout() {
			return DNSServFail
		}
	}
	return DNSServFail
}
