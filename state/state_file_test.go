package state

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
)

func TestStateFileRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "querystats-state")
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "state")

	_, found, err := ReadStateFile(filename)
	if err != nil || found {
		t.Fatalf("Expected no run before first write, got found=%v err=%v", found, err)
	}

	run := Run{ID: "20240301-1005QX", Timestamp: time.Date(2024, 3, 1, 10, 5, 42, 0, time.UTC)}
	if err = WriteStateFile(filename, run); err != nil {
		t.Fatalf("Error: %s", err)
	}
	next := Run{ID: "20240301-1010AB", Timestamp: time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC)}
	if err = WriteStateFile(filename, next); err != nil {
		t.Fatalf("Error: %s", err)
	}

	actual, found, err := ReadStateFile(filename)
	if err != nil || !found {
		t.Fatalf("Expected run, got found=%v err=%v", found, err)
	}
	if diff := pretty.Compare(next, actual); diff != "" {
		t.Errorf("ReadStateFile: diff: (-want +got)\n%s", diff)
	}

	if _, err = os.Stat(filename + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be gone, got %v", err)
	}
}

func TestReadStateFileCorrupt(t *testing.T) {
	file, err := ioutil.TempFile("", "querystats-state")
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	defer os.Remove(file.Name())
	file.WriteString("not a gob stream")
	file.Close()

	_, found, err := ReadStateFile(file.Name())
	if err == nil || found {
		t.Errorf("Expected decode error, got found=%v err=%v", found, err)
	}
}
