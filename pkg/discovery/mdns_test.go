package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
)

func TestEndpointAddr(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		want string
	}{
		{
			name: "prefers resolved address",
			ep:   Endpoint{Host: "srv.local.", Port: 4840, Addresses: []string{"192.168.1.10"}},
			want: "192.168.1.10:4840",
		},
		{
			name: "falls back to hostname",
			ep:   Endpoint{Host: "srv.local.", Port: 4840},
			want: "srv.local.:4840",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntryToEndpoint(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "srv.local.",
		Port:     4840,
		Text:     []string{"namespace=http://fleetglue.dev/registers"},
		AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	}
	entry.Instance = "fleetglue"

	ep := entryToEndpoint(entry)
	if ep.Instance != "fleetglue" {
		t.Errorf("Instance = %q", ep.Instance)
	}
	if len(ep.Addresses) != 2 {
		t.Fatalf("got %d addresses, want 2", len(ep.Addresses))
	}
	if ep.Addresses[0] != "10.0.0.5" {
		t.Errorf("first address = %q", ep.Addresses[0])
	}
	if ep.Addr() != "10.0.0.5:4840" {
		t.Errorf("Addr() = %q", ep.Addr())
	}
}
