package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/pkg/visits"
)

// StatusData renders subscription statuses as a table. Wide adds the
// last visit's accuracy and times.
func StatusData(statuses []waypoint.Status, wide bool) Data {
	headers := []string{"ID", "State", "Observers", "Last Position"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft}
	if wide {
		headers = append(headers, "Accuracy", "Arrival", "Departure")
		align = append(align, AlignRight, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		row := []string{
			s.ID.String(),
			Title(s.State.String()),
			strconv.Itoa(s.Observers),
			"-",
		}
		if s.LastValue != nil {
			row[3] = s.LastValue.Coordinate.String()
		}
		if wide {
			row = append(row, visitDetails(s.LastValue)...)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// ResultData renders dispatched results as a table, one row per result.
// label names the subscription each result belongs to.
func ResultData(results []visits.Result, label func(i int) string) Data {
	rows := make([][]string, 0, len(results))
	for i, res := range results {
		rows = append(rows, append([]string{label(i)}, resultCells(res)...))
	}
	return Data{
		Headers:         []string{"Subscription", "Type", "Detail"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft},
	}
}

func resultCells(res visits.Result) []string {
	if v, ok := res.Visit(); ok {
		return []string{"Visit", fmt.Sprintf("%s ±%gm", v.Coordinate, v.HorizontalAccuracy)}
	}
	if err := res.Err(); err != nil {
		return []string{"Failure", visits.ReasonCode(err) + ": " + err.Error()}
	}
	return []string{"-", "-"}
}

func visitDetails(v *visits.Visit) []string {
	if v == nil {
		return []string{"-", "-", "-"}
	}
	cells := []string{strconv.FormatFloat(v.HorizontalAccuracy, 'f', -1, 64) + "m", "-", "-"}
	if v.HasArrival() {
		cells[1] = v.Arrival.Format(time.RFC3339)
	}
	if v.HasDeparture() {
		cells[2] = v.Departure.Format(time.RFC3339)
	}
	return cells
}
