package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"netcore/internal/domain"
	"netcore/internal/repository/sqlite"
)

const discoveryXML = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -sn 192.168.1.0/24" start="1700000000" version="7.94">
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.1" addrtype="ipv4"/>
<address addr="AA:BB:CC:00:00:01" addrtype="mac" vendor="Routerboard.com"/>
<hostnames><hostname name="gw.lan" type="PTR"/></hostnames>
</host>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.10" addrtype="ipv4"/>
<address addr="AA:BB:CC:00:00:10" addrtype="mac" vendor="Synology Incorporated"/>
</host>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.20" addrtype="ipv4"/>
<hostnames><hostname name="pi.hole" type="PTR"/></hostnames>
</host>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.30" addrtype="ipv4"/>
<address addr="AA:BB:CC:00:00:30" addrtype="mac" vendor="Hewlett Packard"/>
</host>
<host><status state="down" reason="no-response" reason_ttl="0"/>
<address addr="192.168.1.99" addrtype="ipv4"/>
</host>
<runstats><finished time="1700000005" elapsed="5.00"/><hosts up="4" down="1" total="5"/></runstats>
</nmaprun>`

const portScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap --top-ports 200 192.168.1.0/24" start="1700000100" version="7.94">
<hosthint><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.30" addrtype="ipv4"/>
</hosthint>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.20" addrtype="ipv4"/>
<ports>
<port protocol="tcp" portid="22"><state state="open" reason="syn-ack" reason_ttl="64"/></port>
<port protocol="tcp" portid="80"><state state="open" reason="syn-ack" reason_ttl="64"/></port>
</ports>
</host>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="192.168.1.30" addrtype="ipv4"/>
<ports>
<port protocol="tcp" portid="9100"><state state="open" reason="syn-ack" reason_ttl="64"/></port>
<port protocol="tcp" portid="22"><state state="closed" reason="reset" reason_ttl="64"/></port>
</ports>
</host>
<runstats><finished time="1700000200" elapsed="100.00"/><hosts up="2" down="0" total="2"/></runstats>
</nmaprun>`

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func newTestImporter(t *testing.T) (*Importer, *sqlite.Repository) {
	t.Helper()
	store := newTestStore(t)
	linker := NewLinker(store, store, zerolog.Nop())
	return NewImporter(store, linker, zerolog.Nop()), store
}

func seedDevice(t *testing.T, store *sqlite.Repository, ip string, category domain.Category) *domain.Device {
	t.Helper()
	d := domain.NewDevice(ip)
	d.Category = category
	require.NoError(t, store.CreateDevice(context.Background(), d))
	return d
}

func devicesByIP(t *testing.T, store *sqlite.Repository) map[string]domain.Device {
	t.Helper()
	devices, err := store.ListDevices(context.Background())
	require.NoError(t, err)
	out := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		out[d.IPAddress] = d
	}
	return out
}
