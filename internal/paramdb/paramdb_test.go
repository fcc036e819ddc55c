package paramdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "params.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestGetParamMissing(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.GetParam(ParamMavFrame)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetAndGetParam(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetParam(ParamMavFrame, "BODY_NED"))

	value, ok, err := db.GetParam(ParamMavFrame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BODY_NED", value)
}

func TestSetParamOverwrites(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetParam(ParamTFRateLimit, "50"))
	require.NoError(t, db.SetParam(ParamTFRateLimit, "10"))

	value, ok, err := db.GetParam(ParamTFRateLimit)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10", value)
}

func TestSetParamIfAbsent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetParamIfAbsent(ParamTFFrameID, "map"))
	require.NoError(t, db.SetParamIfAbsent(ParamTFFrameID, "odom"))

	value, _, err := db.GetParam(ParamTFFrameID)
	require.NoError(t, err)
	assert.Equal(t, "map", value, "seed must not clobber existing value")
}

func TestGetParamOrDefault(t *testing.T) {
	db := openTestDB(t)

	assert.Equal(t, "LOCAL_NED", db.GetParamOrDefault(ParamMavFrame, "LOCAL_NED"))

	require.NoError(t, db.SetParam(ParamMavFrame, "LOCAL_ENU"))
	assert.Equal(t, "LOCAL_ENU", db.GetParamOrDefault(ParamMavFrame, "LOCAL_NED"))
}

func TestParams(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetParam(ParamMavFrame, "LOCAL_NED"))
	require.NoError(t, db.SetParam(ParamTFListen, "true"))

	params, err := db.Params()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		ParamMavFrame: "LOCAL_NED",
		ParamTFListen: "true",
	}, params)
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SetParam(ParamMavFrame, "BODY_OFFSET_NED"))
	require.NoError(t, db.Close())

	// Reopen: migrations are a no-op and data survives.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	value, ok, err := db.GetParam(ParamMavFrame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BODY_OFFSET_NED", value)
}
