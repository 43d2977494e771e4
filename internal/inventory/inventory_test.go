package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puppetfleet/internal/fleet"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const yamlInventory = `
defaults:
  use-service: "true"
ssh:
  user: root
  key_file: ~/.ssh/id_rsa
hosts:
  - name: master.example.com
    roles: [master, agent]
    platform: el-7-x86_64
    attributes:
      type: aio
  - name: agent1.example.com
    address: 10.0.0.5
    roles: [agent]
    platform: ubuntu-1804-amd64
    ssh:
      port: 2222
  - name: win.example.com
    roles: [agent]
    platform: windows-2019-64
`

func TestLoadYAML(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "hosts.yaml", yamlInventory)
	inv, err := LoadInventory(p)
	require.NoError(t, err)
	hosts := inv.Hosts()
	require.Len(t, hosts, 3)

	m, ok := inv.Host("master.example.com")
	require.True(t, ok)
	assert.True(t, m.HasRole("master"))
	assert.True(t, m.UsesServiceManager())
	assert.True(t, m.IsAIO())
	assert.Equal(t, "el-7-x86_64", m.Get(fleet.AttrPlatform))
	assert.Equal(t, ":", m.Get(fleet.AttrPathSeparator))
	assert.Equal(t, "root", m.SSH().User)
	assert.Equal(t, TransportSSH, m.Transport())
	assert.Equal(t, "master.example.com", m.Address())

	a, _ := inv.Host("agent1.example.com")
	assert.Equal(t, "10.0.0.5", a.Address())
	assert.Equal(t, 2222, a.SSH().Port)
	assert.Equal(t, "root", a.SSH().User, "file level ssh settings are inherited")

	w, _ := inv.Host("win.example.com")
	assert.True(t, w.IsWindowsShell())
	assert.Equal(t, ";", w.Get(fleet.AttrPathSeparator))
}

func TestLoadJSONAndTOML(t *testing.T) {
	d := t.TempDir()
	pj := writeTempFile(t, d, "hosts.json", `{"hosts":[{"name":"a","roles":["master"],"platform":"debian-10-amd64"}]}`)
	inv, err := LoadInventory(pj)
	require.NoError(t, err)
	require.Len(t, inv.Hosts(), 1)

	pt := writeTempFile(t, d, "hosts.toml", "[[hosts]]\nname = \"b\"\nroles = [\"agent\"]\nplatform = \"el-8-x86_64\"\n[hosts.attributes]\ntype = \"foss\"\n")
	inv, err = LoadInventory(pt)
	require.NoError(t, err)
	b, ok := inv.Host("b")
	require.True(t, ok)
	assert.Equal(t, "foss", b.Get(fleet.AttrType))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	d := t.TempDir()
	_, err = Load(writeTempFile(t, d, "hosts.txt", "nope"))
	assert.Error(t, err)

	_, err = LoadInventory(writeTempFile(t, d, "dup.yaml", "hosts:\n  - name: a\n  - name: a\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = LoadInventory(writeTempFile(t, d, "noname.yaml", "hosts:\n  - roles: [agent]\n"))
	assert.ErrorContains(t, err, "no name")

	_, err = LoadInventory(writeTempFile(t, d, "transport.yaml", "hosts:\n  - name: a\n    transport: telnet\n"))
	assert.ErrorContains(t, err, "transport")
}

func TestResolve(t *testing.T) {
	inv, err := New(File{Hosts: []HostSpec{
		{Name: "m", Roles: []string{"master", "agent"}},
		{Name: "a1", Roles: []string{"agent"}},
		{Name: "a2", Roles: []string{"agent"}},
	}})
	require.NoError(t, err)

	names := func(hs []fleet.Host) []string {
		var out []string
		for _, h := range hs {
			out = append(out, h.Name())
		}
		return out
	}

	all, err := inv.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "a1", "a2"}, names(all))

	all, err = inv.Resolve(SelectAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	agents, err := inv.Resolve("agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "a1", "a2"}, names(agents))

	masters, err := inv.Resolve("master")
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, names(masters))

	byName, err := inv.Resolve("a2, a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, names(byName))

	_, err = inv.Resolve("nosuch")
	assert.Error(t, err)
}

func TestLocalPlatformDetection(t *testing.T) {
	old := fnLocalPlatform
	t.Cleanup(func() { fnLocalPlatform = old })
	fnLocalPlatform = func() (string, bool) { return "el-9-x86_64", true }

	inv, err := New(File{Hosts: []HostSpec{
		{Name: "localhost", Transport: TransportLocal},
		{Name: "remote"},
	}})
	require.NoError(t, err)
	l, _ := inv.Host("localhost")
	assert.Equal(t, "el-9-x86_64", l.Get(fleet.AttrPlatform))
	r, _ := inv.Host("remote")
	assert.Empty(t, r.Get(fleet.AttrPlatform))
}

func TestPlatformFromOSRelease(t *testing.T) {
	cases := []struct {
		data, arch, want string
	}{
		{"NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"22.04\"\n", "amd64", "ubuntu-2204-amd64"},
		{"ID=debian\nVERSION_ID=\"12\"\n", "arm64", "debian-12-arm64"},
		{"ID=\"rocky\"\nID_LIKE=\"rhel centos fedora\"\nVERSION_ID=\"9.3\"\n", "amd64", "el-9-x86_64"},
		{"ID=\"centos\"\nVERSION_ID=\"7\"\n", "amd64", "el-7-x86_64"},
		{"ID=fedora\nVERSION_ID=39\n", "arm64", "fedora-39-aarch64"},
		{"ID=\"amzn\"\nID_LIKE=\"centos rhel fedora\"\nVERSION_ID=\"2\"\n", "amd64", "el-2-x86_64"},
	}
	for _, c := range cases {
		got, ok := platformFromOSRelease(c.data, c.arch)
		assert.True(t, ok)
		assert.Equal(t, c.want, got)
	}
	_, ok := platformFromOSRelease("# nothing\n", "amd64")
	assert.False(t, ok)
}
