package observer

import (
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the fixed eight-column header written byte-for-byte, not
// generated, so every export is byte-identical for the same columns.
const csvHeader = "timestamp,torque,bEmf_a,bEmf_b,bEmf_c,current_a,current_b,current_c\n"

// WriteCSV renders every valid row in chronological order to w, using
// the fixed header and a trailing newline per row. Values are
// free-form floating text (strconv.FormatFloat with -1 precision, the
// shortest round-trippable representation).
//
// This writer is hand-rolled rather than built on encoding/csv: the
// format is a fixed eight-column header with unquoted float fields, so
// none of encoding/csv's quoting/escaping machinery earns its keep
// here (see DESIGN.md).
func WriteCSV(w io.Writer, c *Channels) error {
	if _, err := io.WriteString(w, csvHeader); err != nil {
		return err
	}
	n := c.Count()
	buf := make([]byte, 0, 128)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		buf = appendFloat(buf, c.Time.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.Torque.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.BEmfA.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.BEmfB.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.BEmfC.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.CurrentA.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.CurrentB.At(i))
		buf = append(buf, ',')
		buf = appendFloat(buf, c.CurrentC.At(i))
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("observer: write csv row %d: %w", i, err)
		}
	}
	return nil
}

func appendFloat(buf []byte, v float64) []byte {
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}
