// Package discovery advertises and browses register servers over mDNS.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceType is the mDNS service type for register servers.
	ServiceType = "_fleetglue._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// BrowseTimeout is the default browse duration.
	BrowseTimeout = 5 * time.Second
)

// Endpoint describes a discovered register server.
type Endpoint struct {
	Instance  string
	Host      string
	Port      int
	Addresses []string
	Text      []string
}

// Addr returns a dialable "host:port" address for the endpoint,
// preferring a resolved IP over the mDNS hostname.
func (e Endpoint) Addr() string {
	host := e.Host
	if len(e.Addresses) > 0 {
		host = e.Addresses[0]
	}
	return fmt.Sprintf("%s:%d", host, e.Port)
}

// Advertise registers the service on all interfaces. The advertisement
// is withdrawn when ctx is cancelled.
func Advertise(ctx context.Context, instance string, port int, txt []string) error {
	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		txt,
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse collects register servers visible on the local network until
// the timeout elapses or ctx is cancelled.
func Browse(ctx context.Context, timeout time.Duration) ([]Endpoint, error) {
	if timeout <= 0 {
		timeout = BrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var endpoints []Endpoint
	done := make(chan struct{})

	go func() {
		defer close(done)
		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if _, dup := seen[entry.Instance]; dup {
					continue
				}
				seen[entry.Instance] = struct{}{}
				endpoints = append(endpoints, entryToEndpoint(entry))
			case <-removed:
				// A one-shot browse ignores removals.
			case <-ctx.Done():
				return
			}
		}
	}()

	err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("mDNS browse failed: %w", err)
	}

	<-done
	return endpoints, nil
}

func entryToEndpoint(entry *zeroconf.ServiceEntry) Endpoint {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return Endpoint{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
		Text:      entry.Text,
	}
}
