package slurp

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func be32(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

func be64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func utf8StringRecord(id uint64, value string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x01) // TagString
	buf.Write(be32(0))
	buf.Write(be32(uint32(8 + len(value))))
	buf.Write(be64(id))
	buf.WriteString(value)
	return buf.Bytes()
}

func writeSyntheticDump(t *testing.T, path string) {
	var buf bytes.Buffer
	buf.WriteString("JAVA PROFILE 1.0.2")
	buf.WriteByte(0)
	buf.Write(be32(8))
	binary.Write(&buf, binary.BigEndian, uint64(time.Now().UnixMilli()))
	buf.Write(utf8StringRecord(1, "com/example/Widget"))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestRunProducesReport(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "heap.hprof")
	writeSyntheticDump(t, inputPath)

	outPath := filepath.Join(dir, "out.txt")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	defer out.Close()

	opts := Options{InputFile: inputPath, Top: 10}
	require.NoError(t, Run(context.Background(), opts, out))

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "File content summary:")
	assert.Contains(t, string(content), "UTF-8 Strings: 1")
}

func TestRunRejectsMissingFile(t *testing.T) {
	opts := Options{InputFile: "/nonexistent/heap.hprof", Top: 10}
	err := Run(context.Background(), opts, os.Stdout)
	assert.Error(t, err)
}

func TestRunRejectsNonPositiveTop(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "heap.hprof")
	writeSyntheticDump(t, inputPath)

	opts := Options{InputFile: inputPath, Top: 0}
	err := Run(context.Background(), opts, os.Stdout)
	assert.Error(t, err)
}
