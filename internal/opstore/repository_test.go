package opstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := OpenAt(filepath.Join(t.TempDir(), "ops", "worldctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSave_InsertAssignsID(t *testing.T) {
	r := testRepo(t)

	rec := &Record{World: "wurstmineberg", Operation: "start"}
	require.NoError(t, r.Save(rec))

	assert.NotZero(t, rec.ID)
	assert.Equal(t, StatusRunning, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSave_UpdateFinalizesOutcome(t *testing.T) {
	r := testRepo(t)

	rec := &Record{World: "wurstmineberg", Operation: "backup"}
	require.NoError(t, r.Save(rec))

	rec.Status = StatusError
	rec.ErrorMessage = "rcon unreachable"
	require.NoError(t, r.Save(rec))

	recent, err := r.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, StatusError, recent[0].Status)
	assert.Equal(t, "rcon unreachable", recent[0].ErrorMessage)
}

func TestSave_UpdateUnknownID(t *testing.T) {
	r := testRepo(t)

	err := r.Save(&Record{ID: 99, World: "creative", Operation: "stop", Status: StatusSuccess})
	assert.Error(t, err)
}

func TestListRunning_OnlyUnfinished(t *testing.T) {
	r := testRepo(t)

	done := &Record{World: "creative", Operation: "stop", Status: StatusSuccess}
	require.NoError(t, r.Save(done))
	interrupted := &Record{World: "wurstmineberg", Operation: "restart"}
	require.NoError(t, r.Save(interrupted))

	running, err := r.ListRunning()
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "wurstmineberg", running[0].World)
	assert.Equal(t, "restart", running[0].Operation)
}

func TestListRecent_NewestFirstLimited(t *testing.T) {
	r := testRepo(t)

	for _, op := range []string{"start", "backup", "stop"} {
		rec := &Record{World: "wurstmineberg", Operation: op, Status: StatusSuccess}
		require.NoError(t, r.Save(rec))
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := r.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "stop", recent[0].Operation)
	assert.Equal(t, "backup", recent[1].Operation)
}

func TestDeleteOlderThan_KeepsRunningAndFresh(t *testing.T) {
	r := testRepo(t)

	old := &Record{World: "creative", Operation: "start", Status: StatusSuccess,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	require.NoError(t, r.Save(old))
	// Backdate the update timestamp past the cutoff.
	_, err := r.db.Exec(`UPDATE operations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-48*time.Hour).Format(time.RFC3339Nano), old.ID)
	require.NoError(t, err)

	stale := &Record{World: "wurstmineberg", Operation: "restart"}
	require.NoError(t, r.Save(stale))
	_, err = r.db.Exec(`UPDATE operations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-48*time.Hour).Format(time.RFC3339Nano), stale.ID)
	require.NoError(t, err)

	fresh := &Record{World: "wurstmineberg", Operation: "backup", Status: StatusSuccess}
	require.NoError(t, r.Save(fresh))

	n, err := r.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	recent, err := r.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestPathOverride(t *testing.T) {
	dir := t.TempDir()
	SetPath(filepath.Join(dir, "custom.db"))
	defer ResetPath()

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom.db"), path)
}
