package discovery

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uartcmd/uartcmd-go/pkg/command"
	"github.com/uartcmd/uartcmd-go/pkg/version"
)

func TestEncodeDecodeTXT(t *testing.T) {
	info := ConsoleInfo{Mode: command.ModeController, MaxAddress: 100}

	txt := EncodeTXT(info)
	assert.Equal(t, "controller", txt[TXTKeyMode])
	assert.Equal(t, "100", txt[TXTKeyMaxAddress])
	assert.Equal(t, version.Current, txt[TXTKeyVersion])

	got, err := DecodeTXT(StringsToTXTRecords(TXTRecordsToStrings(txt)))
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
	}{
		{"missing mode", TXTRecordMap{TXTKeyMaxAddress: "1"}},
		{"bad mode", TXTRecordMap{TXTKeyMode: "host", TXTKeyMaxAddress: "1"}},
		{"missing max", TXTRecordMap{TXTKeyMode: "device"}},
		{"bad max", TXTRecordMap{TXTKeyMode: "device", TXTKeyMaxAddress: "x"}},
		{"negative max", TXTRecordMap{TXTKeyMode: "device", TXTKeyMaxAddress: "-1"}},
		{"bad version", TXTRecordMap{TXTKeyMode: "device", TXTKeyMaxAddress: "1", TXTKeyVersion: "one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTXT(tt.txt)
			assert.Error(t, err)
		})
	}
}

func TestDecodeTXTIncompatibleVersion(t *testing.T) {
	_, err := DecodeTXT(TXTRecordMap{TXTKeyMode: "device", TXTKeyMaxAddress: "1", TXTKeyVersion: "99.0"})
	assert.ErrorIs(t, err, version.ErrIncompatible)
}

func TestTXTRecordsToStringsSorted(t *testing.T) {
	got := TXTRecordsToStrings(EncodeTXT(InfoFromState(command.DefaultState())))
	assert.Equal(t, []string{"max=512", "mode=device", "ver=" + version.Current}, got)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("bench"))
	assert.ErrorIs(t, ValidateInstanceName(""), ErrInstanceNameTooLong)
	assert.ErrorIs(t, ValidateInstanceName(strings.Repeat("x", 64)), ErrInstanceNameTooLong)
}

type fakeServer struct {
	texts    [][]string
	shutdown bool
}

func (f *fakeServer) SetText(text []string) { f.texts = append(f.texts, text) }
func (f *fakeServer) Shutdown()             { f.shutdown = true }

type registration struct {
	instance, service, domain string
	port                      int
	text                      []string
}

func newTestAdvertiser(t *testing.T, cfg AdvertiserConfig) (*Advertiser, *[]registration, *[]*fakeServer) {
	t.Helper()
	a, err := NewAdvertiser(cfg)
	require.NoError(t, err)

	var regs []registration
	var servers []*fakeServer
	a.register = func(instance, service, domain string, port int, text []string, _ []net.Interface, _ ...zeroconf.ServerOption) (textSetter, error) {
		regs = append(regs, registration{instance, service, domain, port, text})
		s := &fakeServer{}
		servers = append(servers, s)
		return s, nil
	}
	return a, &regs, &servers
}

func TestAdvertiserLifecycle(t *testing.T) {
	a, regs, servers := newTestAdvertiser(t, AdvertiserConfig{Instance: "bench", Port: 4000, TTL: time.Minute})

	assert.ErrorIs(t, a.Update(ConsoleInfo{}), ErrNotAdvertising)

	require.NoError(t, a.Start(InfoFromState(command.DefaultState())))
	require.Len(t, *regs, 1)
	reg := (*regs)[0]
	assert.Equal(t, "bench", reg.instance)
	assert.Equal(t, ServiceType, reg.service)
	assert.Equal(t, Domain, reg.domain)
	assert.Equal(t, 4000, reg.port)
	assert.Equal(t, []string{"max=512", "mode=device", "ver=" + version.Current}, reg.text)

	srv := (*servers)[0]

	// Unchanged info does not touch the records.
	require.NoError(t, a.Update(InfoFromState(command.DefaultState())))
	assert.Empty(t, srv.texts)

	require.NoError(t, a.Update(ConsoleInfo{Mode: command.ModeController, MaxAddress: 7}))
	require.Len(t, srv.texts, 1)
	assert.Equal(t, []string{"max=7", "mode=controller", "ver=" + version.Current}, srv.texts[0])

	a.Stop()
	assert.True(t, srv.shutdown)
	assert.ErrorIs(t, a.Update(ConsoleInfo{}), ErrNotAdvertising)
}

func TestAdvertiserRestartReplaces(t *testing.T) {
	a, regs, servers := newTestAdvertiser(t, AdvertiserConfig{Instance: "bench"})

	require.NoError(t, a.Start(ConsoleInfo{}))
	require.NoError(t, a.Start(ConsoleInfo{}))

	assert.Len(t, *regs, 2)
	assert.True(t, (*servers)[0].shutdown)
	assert.False(t, (*servers)[1].shutdown)
	assert.Equal(t, DefaultPort, (*regs)[1].port)
}

func TestAdvertiserRegisterError(t *testing.T) {
	a, err := NewAdvertiser(AdvertiserConfig{Instance: "bench"})
	require.NoError(t, err)
	a.register = func(string, string, string, int, []string, []net.Interface, ...zeroconf.ServerOption) (textSetter, error) {
		return nil, errors.New("no multicast")
	}

	err = a.Start(ConsoleInfo{})
	assert.ErrorContains(t, err, "no multicast")
	assert.ErrorIs(t, a.Update(ConsoleInfo{}), ErrNotAdvertising)
}

func TestNewAdvertiserInstanceName(t *testing.T) {
	a, err := NewAdvertiser(AdvertiserConfig{Instance: strings.Repeat("n", 80)})
	require.NoError(t, err)
	assert.Len(t, a.Instance(), MaxInstanceNameLen)

	a, err = NewAdvertiser(AdvertiserConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, a.Instance())
}

func TestEntryToConsole(t *testing.T) {
	entry := &zeroconf.ServiceEntry{}
	entry.Instance = "bench"
	entry.HostName = "bench.local."
	entry.Port = 2323
	entry.Text = []string{"mode=controller", "max=9"}
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}

	svc := entryToConsole(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "bench", svc.InstanceName)
	assert.Equal(t, ConsoleInfo{Mode: command.ModeController, MaxAddress: 9}, svc.Info)
	assert.Equal(t, "192.168.1.20:2323", svc.Addr())

	entry.Text = []string{"mode=bogus"}
	assert.Nil(t, entryToConsole(entry))
}

func TestMergeAddresses(t *testing.T) {
	got := mergeAddresses([]string{"a", "b"}, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
