package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema", "map.schema.json")

	require.NoError(t, writeSchema(out, buildSchema()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"Bubble Wars Map"`)
	assert.Contains(t, text, `"possibleMoves"`)
	assert.Contains(t, text, `"spawners"`)

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
