package zonefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

const testYAML = `
zone_root: example.com
soa:
  mname: ns1.example.com.
  refresh: 7200
options:
  idnsallowdynupdate: true
"@":
  MX: "10 mail"
www:
  A: ["1.2.3.4", "1.2.3.5", ""]
www.sub:
  TXT: "nested owner"
`

const testInvalidYAML = `
zone_root: example.com
www:
mail:
		Foo: "bar"`

const testJSON = `{
	"zone_root": "example.org",
	"api": {
	  "A": "5.6.7.8"
	}
}
`

const testTOML = `zone_root = "example.net"
[web]
A = "1.2.3.4"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "zone.yaml", testYAML)
	writeFile(t, tmpDir, "zone.json", testJSON)
	writeFile(t, tmpDir, "zone.toml", testTOML)
	writeFile(t, tmpDir, "README.txt", "not a zone")

	zones, err := LoadDirectory(tmpDir)
	require.NoError(t, err)
	require.Len(t, zones, 3)

	names := []string{zones[0].Name, zones[1].Name, zones[2].Name}
	assert.Equal(t, []string{"example.com.", "example.net.", "example.org."}, names)
}

func TestLoadDirectory_Empty(t *testing.T) {
	zones, err := LoadDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestLoadDirectory_MalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "malformed.yaml", testInvalidYAML)
	writeFile(t, tmpDir, "nozone.json", `{"www": {"A": "1.2.3.4"}}`)
	writeFile(t, tmpDir, "good.toml", testTOML)

	zones, err := LoadDirectory(tmpDir)
	require.Error(t, err)
	assert.Nil(t, zones)
	assert.Contains(t, err.Error(), "malformed.yaml")
	assert.Contains(t, err.Error(), "nozone.json")
}

func TestLoadDirectory_MergesSameRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a.yaml", "zone_root: example.net.\nweb:\n  A: 192.0.2.1\n")
	writeFile(t, tmpDir, "b.toml", testTOML)

	zones, err := LoadDirectory(tmpDir)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, []string{"192.0.2.1", "1.2.3.4"}, zones[0].Owners["web"][domain.RRTypeA])
	assert.Len(t, zones[0].Files, 2)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "zone.yml", testYAML)

	z, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com.", z.Name)
	assert.Equal(t, "ns1.example.com.", z.Options[domain.AttrSOAMName])
	assert.EqualValues(t, 7200, z.Options[domain.AttrSOARefresh])
	assert.Equal(t, true, z.Options[domain.AttrAllowDynUpdate])
	assert.Equal(t, []string{"10 mail"}, z.Owners["@"][domain.RRTypeMX])
	assert.Equal(t, []string{"1.2.3.4", "1.2.3.5"}, z.Owners["www"][domain.RRTypeA])
	assert.Equal(t, []string{"nested owner"}, z.Owners["www.sub"][domain.RRTypeTXT])
	assert.Equal(t, []string{"@", "www", "www.sub"}, z.OwnerNames())
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unsupported extension", "zone.txt", "zone_root: x", "unsupported zone file type"},
		{"missing root", "zone.yaml", "www:\n  A: 1.2.3.4\n", "missing 'zone_root'"},
		{"bad root", "zone.yaml", "zone_root: bad..name\n", "invalid zone_root"},
		{"unknown type", "zone.yaml", "zone_root: example.com\nwww:\n  WKS: foo\n", `unsupported record type "WKS"`},
		{"unknown soa field", "zone.yaml", "zone_root: example.com\nsoa:\n  ttl: 5\n", `unknown soa field "ttl"`},
		{"owner not a map", "zone.yaml", "zone_root: example.com\nwww: 1.2.3.4\n", `owner "www" must map record types to values`},
		{"soa not a map", "zone.json", `{"zone_root": "example.com", "soa": "ns1"}`, "'soa' must be a map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToStringValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"string", " a ", []string{"a"}},
		{"empty string", "  ", nil},
		{"list", []any{"a", 3, "", "b"}, []string{"a", "b"}},
		{"empty list", []any{1, ""}, nil},
		{"number", 42, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toStringValues(tt.in))
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/zone.YAML"))
	assert.True(t, IsSupported("zone.yml"))
	assert.True(t, IsSupported("zone.json"))
	assert.True(t, IsSupported("zone.toml"))
	assert.False(t, IsSupported("zone.db"))
}
