package fixer

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otbr-tools/otbr-manager/pkg/eventlog"
	"github.com/otbr-tools/otbr-manager/pkg/mdns"
	"github.com/otbr-tools/otbr-manager/pkg/otctl"
)

type fakeSampler struct {
	tbl *otctl.AssociationTable
}

func (f *fakeSampler) SampleAssociations(context.Context) *otctl.AssociationTable {
	return f.tbl
}

type fakePublisher struct {
	published  []*mdns.ServiceRecord
	publishErr error
	withdrawn  bool
}

func (f *fakePublisher) Publish(_ context.Context, rec *mdns.ServiceRecord) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, rec)
	return nil
}

func (f *fakePublisher) Withdraw(string) {}

func (f *fakePublisher) WithdrawAll() { f.withdrawn = true }

type fakeBrowser struct {
	fn func(mdns.Announcement)
}

func (f *fakeBrowser) Watch(_ context.Context, _ []string, fn func(mdns.Announcement)) error {
	f.fn = fn
	return nil
}

func testTable() *otctl.AssociationTable {
	return &otctl.AssociationTable{
		MacToRloc: map[string]string{"aabbccddeeff0011": "8c00"},
		RlocToAddrs: map[string][]netip.Addr{
			"8c00": {netip.MustParseAddr("fd01::1")},
		},
	}
}

func emptyAnnouncement() mdns.Announcement {
	return mdns.Announcement{
		ServiceType:  "_matter._tcp",
		InstanceName: "ABCDEF1234567890-0000000000000001",
		HostName:     "AABBCCDDEEFF0011.local.",
		Port:         5540,
		Text:         []string{"SII=5000"},
	}
}

func newTestFixer(t *testing.T, tbl *otctl.AssociationTable) (*Fixer, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	f := New(&fakeSampler{tbl: tbl}, pub, &fakeBrowser{}, eventlog.NoopLogger{}, zerolog.Nop())
	f.RefreshAssociations(context.Background())
	return f, pub
}

func TestInjectsVerifiedAddresses(t *testing.T) {
	f, pub := newTestFixer(t, testTable())

	f.HandleAnnouncement(context.Background(), emptyAnnouncement())

	require.Len(t, pub.published, 1)
	rec := pub.published[0]
	assert.Equal(t, "ABCDEF1234567890-0000000000000001", rec.Instance)
	assert.Equal(t, "_matter._tcp", rec.Service)
	assert.Equal(t, "AABBCCDDEEFF0011.local.", rec.HostName)
	assert.Equal(t, 5540, rec.Port)
	assert.Equal(t, []string{"SII=5000"}, rec.Text)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("fd01::1")}, rec.Addresses)
}

func TestLeavesAnnouncementWithAddressesAlone(t *testing.T) {
	f, pub := newTestFixer(t, testTable())

	ann := emptyAnnouncement()
	ann.Addresses = []netip.Addr{netip.MustParseAddr("fd01::9")}
	ann.HasAddresses = true
	f.HandleAnnouncement(context.Background(), ann)

	assert.Empty(t, pub.published)
}

func TestIPv4OnlyAnnouncementNotRepaired(t *testing.T) {
	f, pub := newTestFixer(t, testTable())

	// Entry carried only A records: Addresses empty but HasAddresses set.
	ann := emptyAnnouncement()
	ann.HasAddresses = true
	f.HandleAnnouncement(context.Background(), ann)

	assert.Empty(t, pub.published)
}

func TestUnverifiableHostNamesIgnored(t *testing.T) {
	tests := []struct {
		name string
		host string
	}{
		{"NotHex", "not-a-mac-address.local."},
		{"TooShort", "aabbcc.local."},
		{"TooLong", "aabbccddeeff001122.local."},
		{"Empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, pub := newTestFixer(t, testTable())
			ann := emptyAnnouncement()
			ann.HostName = tt.host
			f.HandleAnnouncement(context.Background(), ann)
			assert.Empty(t, pub.published)
		})
	}
}

func TestUnknownMACIgnored(t *testing.T) {
	f, pub := newTestFixer(t, testTable())

	ann := emptyAnnouncement()
	ann.HostName = "ffffffffffffffff.local."
	f.HandleAnnouncement(context.Background(), ann)

	assert.Empty(t, pub.published)
}

func TestPublishFailureIsNonFatal(t *testing.T) {
	f, pub := newTestFixer(t, testTable())
	pub.publishErr = errors.New("register failed")

	f.HandleAnnouncement(context.Background(), emptyAnnouncement())
	// No panic, nothing published; a later event retries naturally.
	assert.Empty(t, pub.published)
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	sampler := &fakeSampler{tbl: testTable()}
	pub := &fakePublisher{}
	f := New(sampler, pub, &fakeBrowser{}, eventlog.NoopLogger{}, zerolog.Nop())
	ctx := context.Background()

	// Before the first refresh the table is empty: nothing to verify.
	f.HandleAnnouncement(ctx, emptyAnnouncement())
	assert.Empty(t, pub.published)

	f.RefreshAssociations(ctx)
	f.HandleAnnouncement(ctx, emptyAnnouncement())
	assert.Len(t, pub.published, 1)

	// Device left the mesh: new snapshot supersedes, no more injection.
	sampler.tbl = &otctl.AssociationTable{
		MacToRloc:   map[string]string{},
		RlocToAddrs: map[string][]netip.Addr{},
	}
	f.RefreshAssociations(ctx)
	f.HandleAnnouncement(ctx, emptyAnnouncement())
	assert.Len(t, pub.published, 1)
}

func TestStartWiresBrowserCallback(t *testing.T) {
	browser := &fakeBrowser{}
	pub := &fakePublisher{}
	f := New(&fakeSampler{tbl: testTable()}, pub, browser, eventlog.NoopLogger{}, zerolog.Nop())
	ctx := context.Background()
	f.RefreshAssociations(ctx)

	require.NoError(t, f.Start(ctx))
	require.NotNil(t, browser.fn)

	browser.fn(emptyAnnouncement())
	assert.Len(t, pub.published, 1)
}

func TestShutdownWithdrawsCorrections(t *testing.T) {
	f, pub := newTestFixer(t, testTable())
	f.Shutdown()
	assert.True(t, pub.withdrawn)
}

func TestMACFromHostName(t *testing.T) {
	mac, ok := macFromHostName("2E278F1D98E1714D.local.")
	require.True(t, ok)
	assert.Equal(t, "2e278f1d98e1714d", mac)

	_, ok = macFromHostName("otbr-server.local.")
	assert.False(t, ok)
}
