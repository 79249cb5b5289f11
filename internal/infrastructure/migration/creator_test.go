package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payment index", "add_payment_index"},
		{"Add-Payment-Index", "add_payment_index"},
		{"ADD_PAYMENT_INDEX", "add_payment_index"},
		{"add__payment__index", "add_payment_index"},
		{"Widen Codes 64", "widen_codes_64"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create ledger tables", "Initial schema")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add-payment-index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create_ledger_tables")
	assert.Contains(t, string(up), "-- Description: Initial schema")

	up, err = os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.NotContains(t, string(up), "Description")

	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_later.up.sql",
		"000010_later.down.sql",
		"000002_earlier.up.sql",
		"000002_earlier.down.sql",
		"README.md",
		"notes.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(2), got[0].Version)
	assert.Equal(t, "earlier", got[0].Name)
	assert.Equal(t, uint(10), got[1].Version)
	assert.Equal(t, filepath.Join(dir, "000010_later.down.sql"), got[1].DownPath)
}

func TestListMigrations_MissingDir(t *testing.T) {
	got, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMigrations_ShippedSchema(t *testing.T) {
	got, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, uint(1), got[0].Version)
	for _, mf := range got {
		_, err := os.Stat(mf.DownPath)
		assert.NoError(t, err, "missing rollback for %s", mf.Name)
	}
}
