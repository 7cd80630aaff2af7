package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/memory"
	"github.com/robotalks/vndmesh/pkg/settings"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

const testUUID = "8b1f5c1e-3c57-4a8e-9d43-0c6f27c3b5a1"

func TestConfigParse(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Parse([]byte(`
bearer: mem://parse
addr: 0x0003
app_idx: 1
default_ttl: 5
groups: [0xc000, "0xc001"]
publish: all-nodes
uuid: `+testUUID+`
`)))
	require.Equal(t, "mem://parse", conf.BearerURL)
	require.Equal(t, mesh.Address(3), conf.Addr)
	require.Equal(t, uint16(1), conf.AppIdx)
	require.Equal(t, uint8(5), conf.DefaultTTL)
	require.Equal(t, []mesh.Address{0xc000, 0xc001}, conf.Groups)
	require.Equal(t, mesh.AddrAllNodes, conf.Publish)
	require.NoError(t, conf.Validate())
	require.Equal(t, uuid.MustParse(testUUID), conf.DeviceUUID())

	m := conf.ServerModel()
	require.Equal(t, vendor.ServerModel(), m.ID)
	require.Equal(t, []uint16{1}, m.Keys)
	require.True(t, m.Subscribed(0xc001))
	require.NotNil(t, m.Pub)
	require.Equal(t, mesh.AddrAllNodes, m.Pub.Addr)
	require.Equal(t, uint16(1), m.Pub.AppIdx)

	require.Error(t, conf.Parse([]byte("addr: [")))
	require.Error(t, conf.Parse([]byte("addr: nowhere")))
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"unassigned", func(c *Config) { c.Addr = mesh.AddrUnassigned }, false},
		{"group addr", func(c *Config) { c.Addr = 0xc000 }, false},
		{"ttl 0", func(c *Config) { c.DefaultTTL = 0 }, true},
		{"ttl 1", func(c *Config) { c.DefaultTTL = 1 }, false},
		{"ttl 128", func(c *Config) { c.DefaultTTL = 128 }, false},
		{"unicast group", func(c *Config) { c.Groups = []mesh.Address{0x0005} }, false},
		{"bad uuid", func(c *Config) { c.UUID = "not-a-uuid" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.Addr = 0x0001
			tc.modify(conf)
			if tc.valid {
				require.NoError(t, conf.Validate())
			} else {
				require.Error(t, conf.Validate())
			}
		})
	}
}

func TestNewEnv(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "node.cbor")
	store, err := settings.OpenFileStore(settingsPath)
	require.NoError(t, err)
	require.NoError(t, settings.StoreValue(store, "mesh/seq", uint32(256)))

	confFile := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(confFile, []byte(`
bearer: mem://`+t.Name()+`
addr: 0x0010
uuid: `+testUUID+`
`), 0644))

	conf := NewConfig()
	conf.ConfigFile = confFile
	conf.SettingsPath = settingsPath
	env, err := conf.NewEnv(conf.ClientModel())
	require.NoError(t, err)
	defer env.Close()

	require.Equal(t, 1, memory.Lookup(t.Name()).Ports())
	require.Equal(t, uint32(256), env.Node.Seq())
	comp := env.Node.Composition()
	require.Equal(t, testUUID, comp.UUID)
	require.Equal(t, vendor.CompanyID, comp.CID)
	require.Equal(t, mesh.Address(0x0010), comp.Addr)
	require.Len(t, comp.Elements, 1)
	require.Equal(t, []mesh.ModelID{
		mesh.SIGModel(ModelIDConfigServer),
		mesh.SIGModel(ModelIDHealthServer),
		vendor.ClientModel(),
	}, comp.Elements[0].Models)
	require.Same(t, env.Model, env.Node.FindModel(vendor.ClientModel()))
	select {
	case <-env.Ready():
	default:
		t.Fatal("memory bearer not ready")
	}

	require.NoError(t, env.Close())
	require.Equal(t, 0, memory.Lookup(t.Name()).Ports())
}

func TestNewEnvAutoSettings(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	conf := NewConfig()
	conf.BearerURL = "mem://" + t.Name()
	conf.Addr = 0x0012
	conf.UUID = testUUID
	conf.SettingsPath = AutoSettings
	path, err := conf.ResolveSettingsPath()
	require.NoError(t, err)
	require.Equal(t, "node-0012.cbor", filepath.Base(path))
	require.True(t, filepath.IsAbs(path))

	env, err := conf.NewEnv(conf.ClientModel())
	require.NoError(t, err)
	require.NotNil(t, env.Settings)
	iv := env.Node.IVIndex()
	require.NoError(t, env.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)

	restarted, err := conf.NewEnv(conf.ClientModel())
	require.NoError(t, err)
	defer restarted.Close()
	require.Equal(t, iv, restarted.Node.IVIndex())

	conf.SettingsPath = ""
	path, err = conf.ResolveSettingsPath()
	require.NoError(t, err)
	require.Empty(t, path)
}

func TestNewEnvErrors(t *testing.T) {
	conf := NewConfig()
	conf.Addr = mesh.AddrUnassigned
	_, err := conf.NewEnv(conf.ServerModel())
	require.Error(t, err)

	conf = NewConfig()
	conf.Addr = 0x0001
	conf.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = conf.NewEnv(conf.ServerModel())
	require.Error(t, err)
}

func TestNewBearer(t *testing.T) {
	id := uuid.MustParse(testUUID)
	b, err := NewBearer("mem://"+t.Name(), id)
	require.NoError(t, err)
	require.IsType(t, &memory.Port{}, b)

	_, err = NewBearer("udp://localhost:1234", id)
	require.Error(t, err)
	_, err = NewBearer("://", id)
	require.Error(t, err)
}

func TestDeviceUUID(t *testing.T) {
	if _, err := MachineID(); err != nil {
		t.Skipf("machine ID unavailable: %v", err)
	}
	require.Equal(t, DeviceUUID(1), DeviceUUID(1))
	require.NotEqual(t, DeviceUUID(1), DeviceUUID(2))
}
