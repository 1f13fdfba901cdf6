package grade

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

var csvHeader = []string{
	"Student Name", "Email", "CIA Total", "ESE Total", "Practical Total",
	"Total Marks", "Percentage", "Letter Grade", "Status",
}

// WriteResultsCSV serializes class results in their given order (percentage
// descending as returned by the repository). Grades not yet assigned render
// as "N/A"/"Pending" and zeroes.
func WriteResultsCSV(w io.Writer, results []ClassResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, res := range results {
		letter := res.LetterGrade
		if letter == "" {
			letter = "N/A"
		}
		status := res.Status
		if status == "" {
			status = "Pending"
		}
		row := []string{
			res.StudentName,
			res.StudentEmail,
			strconv.Itoa(res.CIATotal),
			strconv.Itoa(res.ESETotal),
			strconv.Itoa(res.PracticalTotal),
			strconv.Itoa(res.TotalMarks),
			strconv.Itoa(res.Percentage),
			letter,
			status,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing CSV row for student %s", res.StudentID)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
