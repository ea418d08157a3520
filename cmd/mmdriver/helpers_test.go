package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/btalloc/arena"
)

const sampleTrace = `20000
3
6
1
a 0 512
a 1 128
r 0 640
f 1
a 2 24
f 0
`

// resetFlags restores every global flag to its default.
func resetFlags() {
	verbose = false
	jsonOut = false
	logJSON = false
	maxHeap = arena.DefaultMaxSize
	useMmap = false
	checkEachOp = false
	noCoalesceShrink = false

	runLang = "en"
	dumpUpto = 0
	dumpWidth = 64
	genOps = 1000
	genMaxSize = 4096
	genSeed = 0
	genOutput = ""
}

// writeTrace writes content to name inside a temp dir and returns its path.
func writeTrace(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return out, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output is not valid JSON:\n%s", output)
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, want []string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(output, s) {
			t.Errorf("output missing %q\nGot:\n%s", s, output)
		}
	}
}
