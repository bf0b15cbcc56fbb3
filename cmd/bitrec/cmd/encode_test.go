package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var headerDoc = `[
	{"name": "version", "bitLength": 8},
	{"name": "magic", "bitLength": 56},
	{"name": "length", "bitLength": 32},
	{"name": "header_length", "bitLength": 16},
	{"name": "type", "bitLength": 16}
]`

func writeSchemaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "header.json")
	require.NoError(t, os.WriteFile(path, []byte(headerDoc), 0600))
	return path
}

// runCommand executes the root command with args and captures stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flag state left over from earlier runs.
	encodeSets = nil
	encodeOut = ""
	encodeAppend = false
	decodeAll = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	schemaPath := writeSchemaFile(t)

	out, err := runCommand(t, "compile", schemaPath)
	require.NoError(t, err)

	assert.Contains(t, out, "magic")
	assert.Contains(t, out, "total: 128 bits, 16 bytes")
}

func TestCompileCommand_BadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "a", "bitLength": 99}]`), 0600))

	_, err := runCommand(t, "compile", path)
	assert.Error(t, err)
}

func TestEncodeDecodeCommands(t *testing.T) {
	schemaPath := writeSchemaFile(t)
	recordPath := filepath.Join(t.TempDir(), "header.bin")

	out, err := runCommand(t, "encode", schemaPath,
		"--set", "version=1",
		"--set", "magic=0x123456789abcde",
		"--set", "length=0x1357",
		"--set", "header_length=0x48",
		"--set", "type=0xab",
		"-o", recordPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 16 bytes")

	raw, err := os.ReadFile(recordPath)
	require.NoError(t, err)
	require.Len(t, raw, 16)
	assert.Equal(t, byte(0x01), raw[0])

	out, err = runCommand(t, "decode", schemaPath, recordPath)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 0x1")
	assert.Contains(t, out, "magic: 0x123456789abcde")
	assert.Contains(t, out, "length: 0x1357")
	assert.Contains(t, out, "header_length: 0x48")
	assert.Contains(t, out, "type: 0xab")
}

func TestEncodeCommand_StdoutDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pair.json")
	doc := `[{"name": "a", "bitLength": 3}, {"name": "b", "bitLength": 5}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	out, err := runCommand(t, "encode", path, "--set", "a=5", "--set", "b=0b10011")
	require.NoError(t, err)
	assert.Contains(t, out, "9d")
}

func TestEncodeCommand_Errors(t *testing.T) {
	schemaPath := writeSchemaFile(t)

	_, err := runCommand(t, "encode", schemaPath, "--set", "missing=1")
	assert.Error(t, err)

	_, err = runCommand(t, "encode", schemaPath, "--set", "version")
	assert.Error(t, err)

	_, err = runCommand(t, "encode", schemaPath, "--set", "version=notanumber")
	assert.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	schemaPath := writeSchemaFile(t)
	recordPath := filepath.Join(t.TempDir(), "header.bin")

	_, err := runCommand(t, "encode", schemaPath, "--set", "version=1", "-o", recordPath)
	require.NoError(t, err)

	out, err := runCommand(t, "dump", schemaPath, recordPath)
	require.NoError(t, err)
	assert.Contains(t, out, "01 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00")
}

func TestEncodeAppendAndDecodeAll(t *testing.T) {
	schemaPath := writeSchemaFile(t)
	logPath := filepath.Join(t.TempDir(), "headers.log")

	for _, version := range []string{"1", "2", "3"} {
		out, err := runCommand(t, "encode", schemaPath,
			"--set", "version="+version,
			"--append", "-o", logPath)
		require.NoError(t, err)
		assert.Contains(t, out, "appended 16 bytes")
	}

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Len(t, raw, 48)

	out, err := runCommand(t, "decode", schemaPath, logPath, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "record 0 (offset 0)")
	assert.Contains(t, out, "record 2 (offset 32)")
	assert.Contains(t, out, "version: 0x3")
}

func TestDecodeCommand_Truncated(t *testing.T) {
	schemaPath := writeSchemaFile(t)
	recordPath := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(recordPath, []byte{1, 2, 3}, 0600))

	_, err := runCommand(t, "decode", schemaPath, recordPath)
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bitrec.yaml")

	out, err := runCommand(t, "init", "--config", configPath, "--data-dir", "./data")
	require.NoError(t, err)
	assert.Contains(t, out, "API key:")

	// A second init must not clobber the file.
	_, err = runCommand(t, "init", "--config", configPath)
	assert.Error(t, err)
}
