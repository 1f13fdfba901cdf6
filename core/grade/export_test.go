package grade

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
)

func TestWriteResultsCSV(t *testing.T) {
	results := []ClassResult{
		{
			Record: Record{
				StudentID: "s1",
				Totals: Totals{
					CIATotal: 38, ESETotal: 42, PracticalTotal: 9,
					TotalMarks: 89, Percentage: 89,
					LetterGrade: "A", GradePoints: 9, Status: StatusPass,
				},
			},
			StudentName:  "Aisha Khan",
			StudentEmail: "akhan@test.cd",
		},
		{
			// never graded; placeholders expected
			Record:       Record{StudentID: "s2"},
			StudentName:  "Rahul Verma",
			StudentEmail: "rverma@test.cd",
		},
	}

	var buf bytes.Buffer
	if err := WriteResultsCSV(&buf, results); err != nil {
		t.Fatalf("WriteResultsCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	want := [][]string{
		csvHeader,
		{"Aisha Khan", "akhan@test.cd", "38", "42", "9", "89", "89", "A", "Pass"},
		{"Rahul Verma", "rverma@test.cd", "0", "0", "0", "0", "0", "N/A", "Pending"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("WriteResultsCSV() rows = %v, want %v", rows, want)
	}
}

func TestWriteResultsCSV_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResultsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteResultsCSV() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("want header only, got %d rows", len(rows))
	}
}
