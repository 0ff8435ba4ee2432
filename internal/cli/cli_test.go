package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcore/internal/config"
	"netcore/internal/repository/sqlite"
	"netcore/internal/service"
)

const discoveryXML = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -sn 10.0.0.0/24" start="1700000000" version="7.94">
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="10.0.0.1" addrtype="ipv4"/>
<address addr="AA:BB:CC:00:00:01" addrtype="mac" vendor="Ubiquiti"/>
</host>
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="10.0.0.2" addrtype="ipv4"/>
</host>
</nmaprun>`

const portScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap --top-ports 200 10.0.0.0/24" start="1700000100" version="7.94">
<host><status state="up" reason="arp-response" reason_ttl="0"/>
<address addr="10.0.0.2" addrtype="ipv4"/>
<ports>
<port protocol="tcp" portid="22"><state state="open" reason="syn-ack" reason_ttl="64"/></port>
</ports>
</host>
</nmaprun>`

// testEnv writes a config file pointing at a temp sqlite database and scan dir
func testEnv(t *testing.T) (configPath, dbPath, scanDir string) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "NMAP_DIR", "LOG_LEVEL", "LOG_FORMAT", "PROBER", "INTERVAL", "PROBE_TIMEOUT", "PROBE_MAX_CONCURRENT"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "netcore.db")
	scanDir = filepath.Join(dir, "scans")
	require.NoError(t, os.MkdirAll(scanDir, 0o755))

	configPath = filepath.Join(dir, "netcore.yaml")
	body := fmt.Sprintf("database:\n  url: sqlite://%s\nscan:\n  dir: %s\nlog:\n  level: error\n", dbPath, scanDir)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath, dbPath, scanDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootHasCommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "import", "link", "monitor", "export"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestImportCommand(t *testing.T) {
	configPath, dbPath, scanDir := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, service.DefaultDiscoveryFile), []byte(discoveryXML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, service.DefaultPortScanFile), []byte(portScanXML), 0o644))

	out, err := execute(t, "--config", configPath, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Devices created: 2")
	assert.Contains(t, out, "Links created:   1")

	out, err = execute(t, "--config", configPath, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Devices skipped: 2")

	repo, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	devices, err := repo.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestImportCommandExplicitFiles(t *testing.T) {
	configPath, _, _ := testEnv(t)
	dir := t.TempDir()
	discovery := filepath.Join(dir, "d.xml")
	ports := filepath.Join(dir, "p.xml")
	require.NoError(t, os.WriteFile(discovery, []byte(discoveryXML), 0o644))
	require.NoError(t, os.WriteFile(ports, []byte(portScanXML), 0o644))

	out, err := execute(t, "--config", configPath, "import", "--discovery", discovery, "--ports", ports)
	require.NoError(t, err)
	assert.Contains(t, out, "Devices created: 2")

	_, err = execute(t, "--config", configPath, "import", "--discovery", discovery)
	assert.Error(t, err)
}

func TestImportCommandMissingFiles(t *testing.T) {
	configPath, _, _ := testEnv(t)
	_, err := execute(t, "--config", configPath, "import")
	assert.Error(t, err)
}

func TestLinkCommand(t *testing.T) {
	configPath, _, _ := testEnv(t)
	out, err := execute(t, "--config", configPath, "link")
	require.NoError(t, err)
	assert.Contains(t, out, "Links created: 0")
}

func TestMissingDatabaseURL(t *testing.T) {
	_, _, _ = testEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "netcore.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0o644))

	_, err := execute(t, "--config", configPath, "link")
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
}

func TestExportCommand(t *testing.T) {
	configPath, _, scanDir := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, service.DefaultDiscoveryFile), []byte(discoveryXML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, service.DefaultPortScanFile), []byte(portScanXML), 0o644))
	_, err := execute(t, "--config", configPath, "import")
	require.NoError(t, err)

	out, err := execute(t, "--config", configPath, "export", "--format", "ansible-inventory")
	require.NoError(t, err)
	assert.Contains(t, out, "ansible_host: 10.0.0.1")

	file := filepath.Join(t.TempDir(), "inv.json")
	_, err = execute(t, "--config", configPath, "export", "-f", "json", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"links"`)
}

// serveConfig writes a config that listens on an ephemeral port
func serveConfig(t *testing.T, scanDir string) string {
	t.Helper()
	configPath, dbPath, _ := testEnv(t)
	body := fmt.Sprintf("database:\n  url: sqlite://%s\nscan:\n  dir: %s\nserver:\n  listen: 127.0.0.1:0\nlog:\n  level: error\n", dbPath, scanDir)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath
}

func runServe(ctx context.Context, args ...string) <-chan error {
	done := make(chan error, 1)
	go func() {
		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		done <- cmd.ExecuteContext(ctx)
	}()
	return done
}

func TestServeStopsOnCancel(t *testing.T) {
	configPath := serveConfig(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	done := runServe(ctx, "--config", configPath, "serve", "--watch", "--no-monitor")

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestServeWatchFailureStopsServer(t *testing.T) {
	configPath := serveConfig(t, filepath.Join(t.TempDir(), "missing"))

	done := runServe(context.Background(), "--config", configPath, "serve", "--watch", "--no-monitor")

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running after the watcher failed")
	}
}
