package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	doc, err := Generate(Params{Name: "t", Nights: 10, Agents: 4, PerNight: 2, UnwantedRate: 0.2, ExtraRate: 0.3, Seed: 3})
	require.NoError(t, err)

	rows := doc["preferences"].([]any)
	require.Len(t, rows, 10)
	for _, r := range rows {
		assert.Len(t, r.([]any), 4)
	}
	assert.Len(t, doc["agents"].([]any), 4)
	assert.Equal(t, 2, doc["sysadmins_per_night"])

	// round robin over 4 agents with 2 per night: every agent gets 5 shifts
	assert.Equal(t, 5, doc["min_shifts"])
	assert.LessOrEqual(t, doc["max_unwanted_shifts"].(int), 5)
}

func TestGenerate_Deterministic(t *testing.T) {
	p := Params{Nights: 7, Agents: 3, PerNight: 1, UnwantedRate: 0.5, ExtraRate: 0.5, Seed: 11}
	a, err := Generate(p)
	require.NoError(t, err)
	b, err := Generate(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_NoUnwanted(t *testing.T) {
	doc, err := Generate(Params{Nights: 6, Agents: 3, PerNight: 1, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, doc["max_unwanted_shifts"])
}

func TestGenerate_Invalid(t *testing.T) {
	for _, p := range []Params{
		{Nights: 0, Agents: 3, PerNight: 1},
		{Nights: 3, Agents: 3, PerNight: 4},
		{Nights: 3, Agents: 3, PerNight: 1, UnwantedRate: 2},
	} {
		_, err := Generate(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestRun(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-nights", "5", "-agents", "3", "-per-night", "1"}, &stdout, &stderr), stderr.String())

	parsed, err := yaml.Parser().Unmarshal(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "generated", parsed["name"])
	assert.Len(t, parsed["preferences"], 5)

	out := filepath.Join(t.TempDir(), "p.yaml")
	require.Equal(t, 0, run([]string{"-out", out}, &stdout, &stderr))
	_, err = os.Stat(out)
	assert.NoError(t, err)

	assert.Equal(t, 1, run([]string{"-per-night", "0"}, &stdout, &stderr))
}
