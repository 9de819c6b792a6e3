package backup

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultName(t *testing.T) {
	at := time.Date(2026, 8, 25, 14, 5, 0, 0, time.UTC)
	got := DefaultName("wurstmineberg", at)
	want := "wurstmineberg_2026-08-25_14h05.tar.gz"
	if got != want {
		t.Errorf("DefaultName = %q, want %q", got, want)
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "world")
	if err := os.MkdirAll(filepath.Join(src, "region"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"level.dat":       "level data",
		"region/r.0.0.mca": "region data",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	dest := filepath.Join(t.TempDir(), "backups", "world_test.tar.gz")
	if err := Create(src, dest); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not a gzip file: %v", err)
	}
	tr := tar.NewReader(gz)

	got := map[string]string{}
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			content, err := io.ReadAll(tr)
			if err != nil {
				t.Fatal(err)
			}
			got[hdr.Name] = string(content)
		}
	}

	want := map[string]string{
		"world/level.dat":        "level data",
		"world/region/r.0.0.mca": "region data",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archive contents mismatch (-want +got):\n%s", diff)
	}

	sort.Strings(names)
	wantNames := []string{"world/", "world/level.dat", "world/region/", "world/region/r.0.0.mca"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.tar.gz")
	if err := Create(filepath.Join(t.TempDir(), "nope"), dest); err == nil {
		t.Fatal("expected error for missing source directory")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no tarball should exist after a failed backup")
	}
}
