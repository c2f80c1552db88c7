package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	l, err := NewFileLogger(path)
	require.NoError(t, err)

	now := time.Now()
	l.Log(Event{
		Timestamp:    now,
		RunID:        "run-1",
		Category:     CategoryAdvertise,
		InstanceName: "MyMesh._meshcop._udp.local.",
		Addresses:    []string{"fd01::1"},
	})
	l.Log(Event{
		Timestamp: now,
		RunID:     "run-1",
		Category:  CategoryRoute,
		Prefix:    "fd01:adb5:fb49:1::/64",
	})
	require.NoError(t, l.Close())

	// Reopening appends rather than truncating.
	l2, err := NewFileLogger(path)
	require.NoError(t, err)
	l2.Log(Event{Timestamp: now, RunID: "run-2", Category: CategoryWithdraw})
	require.NoError(t, l2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	events, err := ReadEvents(f)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, CategoryAdvertise, events[0].Category)
	assert.Equal(t, "MyMesh._meshcop._udp.local.", events[0].InstanceName)
	assert.Equal(t, []string{"fd01::1"}, events[0].Addresses)
	assert.Equal(t, "fd01:adb5:fb49:1::/64", events[1].Prefix)
	assert.Equal(t, "run-2", events[2].RunID)
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	// Log after Close is a silent no-op.
	l.Log(Event{Category: CategoryCycle})
}

func TestMultiLoggerFansOut(t *testing.T) {
	var got []Event
	capture := loggerFunc(func(e Event) { got = append(got, e) })

	m := NewMultiLogger(capture, NoopLogger{}, capture)
	m.Log(Event{Category: CategoryFix, Detail: "test"})

	require.Len(t, got, 2)
	assert.Equal(t, CategoryFix, got[0].Category)
}

type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "ADVERTISE", CategoryAdvertise.String())
	assert.Equal(t, "FIX", CategoryFix.String())
	assert.Equal(t, "UNKNOWN", Category(99).String())
}
