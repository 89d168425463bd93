package export

import (
	"strconv"
	"time"
)

// Columns emitted for every transcript line, in order.
var transcriptColumns = []string{"#", "sender", "timestamp", "text"}

// Line is one turn of a chat transcript.
type Line struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

// Transcript is an exportable conversation.
type Transcript struct {
	Title string
	Lines []Line
}

func (t Transcript) records() [][]string {
	records := make([][]string, 0, len(t.Lines))
	for i, line := range t.Lines {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			line.Sender,
			line.Timestamp.UTC().Format(time.RFC3339),
			line.Text,
		})
	}
	return records
}
