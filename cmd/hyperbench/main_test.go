package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/hyperbench"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	assert.Nil(t, err)
	assert.Equal(t, "hyperbench dev\n", out)
}

func TestJuxtaCommand_Text(t *testing.T) {
	out, _, err := execute(t, "juxta", "--suite", "sort", "--trials", "2", "--size", "16", "--seed", "5", "--log-level", "warn")
	assert.Nil(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, 2*4, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "Running trial 1 of 2 ... "))
	assert.True(t, strings.HasPrefix(lines[4], "Running trial 2 of 2 ... "))
	assert.True(t, strings.HasPrefix(lines[5], "insertion: median="))
	assert.True(t, strings.HasSuffix(lines[7], " num=2"))
}

func TestJuxtaCommand_JSONReport(t *testing.T) {
	out, errOut, err := execute(t, "juxta", "--suite", "hash", "--trials", "3", "--size", "4", "--seed", "9",
		"--format", "json", "--unit", "us", "--log-level", "info")
	assert.Nil(t, err)
	assert.True(t, strings.Contains(errOut, "Running trial 3 of 3 ... "))

	var report hyperbench.Report

	assert.Nil(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "us", report.Unit)
	assert.Equal(t, 3, len(report.Tests))
	assert.Equal(t, "crc32", report.Tests[0].Name)
	assert.Equal(t, "fnv64a", report.Tests[1].Name)
	assert.Equal(t, "xxhash", report.Tests[2].Name)

	for _, test := range report.Tests {
		assert.Equal(t, 3, test.Stat.Num)
	}
}

func TestJuxtaCommand_EncodeSuite(t *testing.T) {
	out, _, err := execute(t, "juxta", "--suite", "encode", "--trials", "1", "--size", "8", "--format", "msgpack",
		"--log-level", "warn")
	assert.Nil(t, err)
	assert.True(t, len(out) > 0)
}

func TestJuxtaCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "juxta", "--suite", "nope")
	assert.NotNil(t, err)

	_, _, err = execute(t, "juxta", "--size", "0")
	assert.NotNil(t, err)

	_, _, err = execute(t, "juxta", "--unit", "fortnight")
	assert.NotNil(t, err)

	_, _, err = execute(t, "juxta", "--trials", "-1", "--log-level", "warn")
	assert.NotNil(t, err)

	_, _, err = execute(t, "juxta", "--trials", "1", "--format", "yaml", "--log-level", "warn")
	assert.NotNil(t, err)
}

func TestStepsCommand(t *testing.T) {
	out, _, err := execute(t, "steps", "--workers", "2", "--jobs", "10", "--rounds", "2", "--buckets", "1", "--log-level", "warn")
	assert.Nil(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, "------------------", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Total elapsed: "))
	assert.True(t, strings.HasPrefix(lines[2], "steps.generate: percent="))
	assert.True(t, strings.HasPrefix(lines[3], "steps.hash: percent="))
	assert.True(t, strings.HasPrefix(lines[4], "steps.encode: percent="))
	assert.True(t, strings.HasSuffix(lines[2], " num=2"))
	assert.Equal(t, "bucket-0: 20", lines[5])
	assert.Equal(t, 6, len(lines))
}

func TestStepsCommand_Trace(t *testing.T) {
	_, errOut, err := execute(t, "steps", "--jobs", "4", "--rounds", "2", "--trace", "--log-level", "warn")
	assert.Nil(t, err)

	lines := strings.Split(strings.TrimSuffix(errOut, "\n"), "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasSuffix(lines[0], " ms round 1 hashed 4 payloads"))
	assert.True(t, strings.HasSuffix(lines[1], " ms round 2 hashed 4 payloads"))
}
