package table

import "fmt"

// MalformedHeaderError reports a header field that breaks the layout rules.
type MalformedHeaderError struct {
	Field  string
	Value  uint32
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header: %s = %d, %s",
		e.Field, e.Value, e.Reason)
}

// OutOfRangeError reports a row index past the last row of the table.
type OutOfRangeError struct {
	Row     uint32
	NumRows uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("row %d out of range, table has %d rows",
		e.Row, e.NumRows)
}
