package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	database, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "hearth.db"))
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, database.Driver)

	var one int
	require.NoError(t, database.DB.Raw("SELECT 1").Scan(&one).Error)
	require.Equal(t, 1, one)
	require.NoError(t, database.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := OpenPostgres("")
	require.Error(t, err)
	_, err = OpenSQLite("")
	require.Error(t, err)
}

func TestCloseNil(t *testing.T) {
	var database *Database
	require.NoError(t, database.Close())
}
