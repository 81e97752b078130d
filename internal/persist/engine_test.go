package persist

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/domain"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.json")
	return NewEngine(zap.NewNop(), path), path
}

func sampleState() domain.PersistedState {
	state := domain.NewPersistedState()
	state.Statuses["MainSite"] = domain.ServiceStatus{
		Online:              true,
		LastChecked:         time.Date(2025, 8, 18, 12, 0, 30, 0, time.UTC),
		LastChange:          time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
		MonitoringSince:     time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		CumulativeUpSeconds: 432000.5,
		TotalChecks:         1440,
		UptimePercent:       99.2,
	}
	state.Handle = &domain.NotificationHandle{
		MessageID: "1407812345678901234",
		UpdatedAt: time.Date(2025, 8, 18, 12, 0, 31, 0, time.UTC),
	}
	return state
}

func TestLoad_MissingFileIsFreshState(t *testing.T) {
	e, _ := newTestEngine(t)

	state, err := e.Load()
	require.NoError(t, err)
	require.Equal(t, domain.SchemaVersion, state.Version)
	require.NotNil(t, state.Statuses)
	require.Empty(t, state.Statuses)
	require.Nil(t, state.Handle)
}

// P5: deep round-trip of every persisted field.
func TestSaveLoad_RoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	want := sampleState()

	require.NoError(t, e.Save(want))

	got, err := e.Load()
	require.NoError(t, err)
	require.Equal(t, want.Version, got.Version)

	w, g := want.Statuses["MainSite"], got.Statuses["MainSite"]
	require.Equal(t, w.Online, g.Online)
	require.True(t, w.LastChecked.Equal(g.LastChecked))
	require.True(t, w.LastChange.Equal(g.LastChange))
	require.True(t, w.MonitoringSince.Equal(g.MonitoringSince), "monitoring_since survives restarts exactly")
	require.InDelta(t, w.CumulativeUpSeconds, g.CumulativeUpSeconds, 1e-9)
	require.Equal(t, w.TotalChecks, g.TotalChecks)
	require.InDelta(t, w.UptimePercent, g.UptimePercent, 1e-9)

	require.NotNil(t, got.Handle)
	require.Equal(t, want.Handle.MessageID, got.Handle.MessageID)
	require.True(t, want.Handle.UpdatedAt.Equal(got.Handle.UpdatedAt))
}

// P6: garbage in the file is backed up exactly once and load yields fresh.
func TestLoad_CorruptFileBackedUp(t *testing.T) {
	e, path := newTestEngine(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state, err := e.Load()
	require.NoError(t, err)
	require.Empty(t, state.Statuses)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)

	var backups []string
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".corrupt.") && strings.HasSuffix(entry.Name(), ".bak") {
			backups = append(backups, entry.Name())
		}
	}
	require.Len(t, backups, 1)

	// original file is gone until the next save
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestLoad_EmptyFileTreatedAsCorrupt(t *testing.T) {
	e, path := newTestEngine(t)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	state, err := e.Load()
	require.NoError(t, err)
	require.Empty(t, state.Statuses)
}

func TestLoad_VersionMismatchStillLoads(t *testing.T) {
	e, path := newTestEngine(t)
	body := `{"version":"1","statuses":{"Old":{"online":true,"total_checks":3}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	state, err := e.Load()
	require.NoError(t, err)
	require.Equal(t, "1", state.Version)
	require.Equal(t, 3, state.Statuses["Old"].TotalChecks)
}

func TestLoad_NilStatusesInitialized(t *testing.T) {
	e, path := newTestEngine(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2"}`), 0o644))

	state, err := e.Load()
	require.NoError(t, err)
	require.NotNil(t, state.Statuses)
}

func TestSave_CreatesStateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "status.json")
	e := NewEngine(zap.NewNop(), path)

	require.NoError(t, e.Save(sampleState()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	e, path := newTestEngine(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Save(sampleState()))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotContains(t, entry.Name(), ".tmp-")
	}
}

// Concurrent saves must serialize; the file must stay parsable throughout.
func TestSave_ConcurrentSavesStayConsistent(t *testing.T) {
	e, _ := newTestEngine(t)
	var wg sync.WaitGroup

	for w := 0; w < 6; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = e.Save(sampleState())
			}
		}()
	}
	wg.Wait()

	state, err := e.Load()
	require.NoError(t, err)
	require.Equal(t, 1440, state.Statuses["MainSite"].TotalChecks)
}

func TestSave_FailureKeepsPreviousFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	e, path := newTestEngine(t)
	require.NoError(t, e.Save(sampleState()))

	// Make the directory read-only so the temp file cannot be created.
	dir := filepath.Dir(path)
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := e.Save(sampleState())
	require.Error(t, err)

	require.NoError(t, os.Chmod(dir, 0o755))
	state, loadErr := e.Load()
	require.NoError(t, loadErr)
	require.Equal(t, 1440, state.Statuses["MainSite"].TotalChecks, "previous durable state intact")
}
