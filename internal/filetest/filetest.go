// Package filetest provides helpers for golden-file tests: enumerate
// fixture scripts in a testdata directory and diff the observed output
// against the recorded expectation, with flags to update the golden files
// from the observed results.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// SourceFiles returns the names of the regular files in dir with the given
// extension (leading dot optional).
func SourceFiles(t *testing.T, dir, ext string) []string {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, dent := range dents {
		if !dent.Type().IsRegular() || (ext != "" && filepath.Ext(dent.Name()) != ext) {
			continue
		}
		names = append(names, dent.Name())
	}
	return names
}

// DiffOutput validates that output matches the golden file
// resultDir/name.want, or updates the golden file when the flag is set.
func DiffOutput(t *testing.T, name, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, name, "output", ".want", output, resultDir, updateFlag)
}

// DiffErrors validates that the error output matches the golden file
// resultDir/name.err, or updates the golden file when the flag is set.
func DiffErrors(t *testing.T, name, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, name, "errors", ".err", output, resultDir, updateFlag)
}

// DiffCustom is the general form of DiffOutput and DiffErrors: label names
// the kind of output in failure logs and ext is the golden file extension,
// including the leading dot.
func DiffCustom(t *testing.T, name, label, ext, output, resultDir string, updateFlag *bool) {
	t.Helper()

	goldFile := filepath.Join(resultDir, name+ext)
	if *updateFlag || *testUpdateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
