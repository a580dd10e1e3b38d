package datarecording

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sarchlab/tablevertex/recording"
	tvtable "github.com/sarchlab/tablevertex/table"
)

// EntryTable is the default table for recorded entries.
const EntryTable = "recorded_entries"

// EntryRow is a recorded block as stored in the database.
type EntryRow struct {
	Channel int
	Time    uint32
	Length  int
	Hex     string
	Text    string
}

// An EntrySink writes the records flushed from recording channels into a
// DataRecorder table.
type EntrySink struct {
	recorder  DataRecorder
	tableName string
	count     int
}

// NewEntrySink creates the entry table and returns a sink that writes to it.
func NewEntrySink(recorder DataRecorder, tableName string) *EntrySink {
	recorder.CreateTable(tableName, EntryRow{})

	return &EntrySink{recorder: recorder, tableName: tableName}
}

// Flush stores the records.
func (s *EntrySink) Flush(records []recording.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storing records: %v", r)
		}
	}()

	for _, r := range records {
		s.recorder.InsertData(s.tableName, EntryRow{
			Channel: r.Channel,
			Time:    r.Time,
			Length:  len(r.Data),
			Hex:     hex.EncodeToString(r.Data),
			Text:    string(tvtable.TrimEntry(r.Data)),
		})
		s.count++
	}

	return nil
}

// Count returns how many records have been stored.
func (s *EntrySink) Count() int {
	return s.count
}

// ReadEntries returns the entries of a table in the order they were stored.
func ReadEntries(
	ctx context.Context,
	reader DataReader,
	tableName string,
	params QueryParams,
) ([]EntryRow, int, error) {
	reader.MapTable(tableName, EntryRow{})

	results, total, err := reader.Query(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]EntryRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, *r.(*EntryRow))
	}

	return rows, total, nil
}
