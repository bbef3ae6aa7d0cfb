package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSchema struct {
	calls   []string
	version uint
	dirty   bool
	closed  bool
}

func (f *fakeSchema) Up() error                    { f.calls = append(f.calls, "up"); return nil }
func (f *fakeSchema) Down() error                  { f.calls = append(f.calls, "down"); return nil }
func (f *fakeSchema) Steps(n int) error            { f.calls = append(f.calls, "steps"); return nil }
func (f *fakeSchema) GoTo(uint) error              { f.calls = append(f.calls, "goto"); return nil }
func (f *fakeSchema) Version() (uint, bool, error) { return f.version, f.dirty, nil }
func (f *fakeSchema) Force(int) error              { f.calls = append(f.calls, "force"); return nil }
func (f *fakeSchema) Close() error                 { f.closed = true; return nil }

func run(t *testing.T, s *fakeSchema, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(fs.FS, *zap.Logger) (schema, error) { return s, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_Up(t *testing.T) {
	s := &fakeSchema{}
	_, err := run(t, s, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, s.calls)
	assert.True(t, s.closed)
}

func TestMigrate_DownNeedsConfirm(t *testing.T) {
	s := &fakeSchema{}
	_, err := run(t, s, "down")
	require.Error(t, err)
	assert.Empty(t, s.calls)

	_, err = run(t, s, "down", "--confirm")
	require.NoError(t, err)
	assert.Equal(t, []string{"down"}, s.calls)
}

func TestMigrate_ArgumentValidation(t *testing.T) {
	tests := [][]string{
		{"step"},
		{"step", "zero"},
		{"step", "0"},
		{"goto", "-1"},
		{"force", "v3"},
		{"up", "extra"},
	}
	for _, args := range tests {
		s := &fakeSchema{}
		_, err := run(t, s, args...)
		assert.Error(t, err, args)
		assert.Empty(t, s.calls, args)
	}
}

func TestMigrate_Status(t *testing.T) {
	s := &fakeSchema{version: 20260301090100, dirty: true}
	out, err := run(t, s, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "20260301090000  create_users_and_catalog")
	assert.Regexp(t, `20260301090100\s+create_delivery_and_promotions\s+true`, out)
	assert.Regexp(t, `20260301090200\s+create_orders_and_outbox\s+false`, out)
	assert.Contains(t, out, "is dirty")
}

func TestMigrate_CreateAndList(t *testing.T) {
	dir := t.TempDir()
	s := &fakeSchema{}

	out, err := run(t, s, "--path", dir, "create", "Add Substitutions", "-d", "allow product substitutions")
	require.NoError(t, err)
	assert.Contains(t, out, "_add_substitutions.up.sql")

	up, err := filepath.Glob(filepath.Join(dir, "*_add_substitutions.up.sql"))
	require.NoError(t, err)
	require.Len(t, up, 1)
	body, err := os.ReadFile(up[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "allow product substitutions")

	out, err = run(t, s, "--path", dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "_add_substitutions")
	assert.Empty(t, s.calls)
}

func TestMigrate_OpenFailure(t *testing.T) {
	cmd := newRootCmd(func(fs.FS, *zap.Logger) (schema, error) { return nil, errors.New("no database") })
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&bytes.Buffer{})
	assert.EqualError(t, cmd.Execute(), "no database")
}
