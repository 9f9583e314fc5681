package state

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// StateOnDiskFormatVersion - Increment this when an old state preserved to disk should be ignored
const StateOnDiskFormatVersion = 1

// StateOnDisk - Marker of the last completed run, read at the start of each cycle
type StateOnDisk struct {
	FormatVersion uint

	LastRun Run
}

// WriteStateFile - Replaces the on-disk marker with the given run
func WriteStateFile(filename string, run Run) error {
	stateOnDisk := StateOnDisk{FormatVersion: StateOnDiskFormatVersion, LastRun: run}

	tmpFilename := filename + ".tmp"
	file, err := os.Create(tmpFilename)
	if err != nil {
		return errors.Wrap(err, "could not create state file")
	}

	err = gob.NewEncoder(file).Encode(stateOnDisk)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpFilename)
		return errors.Wrap(err, "could not write state file")
	}

	return errors.Wrap(os.Rename(tmpFilename, filename), "could not replace state file")
}

// ReadStateFile - Returns the last run recorded on disk; found is false if there is
// no usable state file (e.g. on the very first run)
func ReadStateFile(filename string) (run Run, found bool, err error) {
	var stateOnDisk StateOnDisk

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return run, false, nil
		}
		return run, false, errors.Wrap(err, "could not open state file")
	}
	defer file.Close()

	err = gob.NewDecoder(file).Decode(&stateOnDisk)
	if err != nil {
		return run, false, errors.Wrap(err, "could not decode state file")
	}

	if stateOnDisk.FormatVersion < StateOnDiskFormatVersion || stateOnDisk.LastRun.ID == "" {
		return run, false, nil
	}

	return stateOnDisk.LastRun, true, nil
}
