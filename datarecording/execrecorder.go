package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfoTable is the table that holds the properties of a run.
const RunInfoTable = "run_info"

// RunInfo is a property of a run.
type RunInfo struct {
	Property string
	Value    string
}

// A RunRecorder records how a run was started, with what parameters, and
// when it ended.
type RunRecorder struct {
	recorder DataRecorder
	entries  []RunInfo
}

// NewRunRecorder creates a RunRecorder that writes to the given recorder.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	recorder.CreateTable(RunInfoTable, RunInfo{})

	return &RunRecorder{recorder: recorder}
}

// Start records the start time, the command line, and the working directory.
func (e *RunRecorder) Start() {
	e.Set("Start Time", time.Now().Format(time.RFC3339Nano))
	e.Set("Command", strings.Join(os.Args, " "))

	if wd, err := os.Getwd(); err == nil {
		e.Set("Working Directory", wd)
	}
}

// Set records a property of the run.
func (e *RunRecorder) Set(property, value string) {
	e.entries = append(e.entries, RunInfo{property, value})
}

// End writes the properties along with the end time.
func (e *RunRecorder) End() {
	e.Set("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(RunInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
