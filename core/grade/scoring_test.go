package grade

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func marks(cia1, cia2, cia3, mse, ese null.Int) AssessmentSet {
	set := NewAssessmentSet()
	set.CIA1.Marks = cia1
	set.CIA2.Marks = cia2
	set.CIA3.Marks = cia3
	set.MSE.Marks = mse
	set.ESE.Marks = ese
	return set
}

func experiment(name string, obs, rec null.Int) Experiment {
	return Experiment{Name: name, Observation: obs, Record: rec}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name        string
		assessments AssessmentSet
		experiments []Experiment
		want        Totals
	}{
		{
			name:        "no marks entered",
			assessments: NewAssessmentSet(),
			want:        Totals{LetterGrade: "F", GradePoints: 0, Status: StatusFail},
		},
		{
			name: "full marks",
			assessments: marks(
				null.IntFrom(20), null.IntFrom(50), null.IntFrom(20),
				null.IntFrom(50), null.IntFrom(50),
			),
			experiments: []Experiment{
				experiment("Exp 1", null.IntFrom(5), null.IntFrom(5)),
				experiment("Exp 2", null.IntFrom(5), null.IntFrom(5)),
				experiment("Exp 3", null.IntFrom(5), null.IntFrom(5)),
			},
			want: Totals{
				CIATotal: 40, ESETotal: 50, PracticalTotal: 10,
				TotalMarks: 100, Percentage: 100,
				LetterGrade: "A+", GradePoints: 10, Status: StatusPass,
			},
		},
		{
			name: "CIA scales 90 raw to 40",
			assessments: marks(
				null.IntFrom(20), null.IntFrom(50), null.IntFrom(20),
				null.Int{}, null.Int{},
			),
			want: Totals{
				CIATotal: 40, TotalMarks: 40, Percentage: 40,
				LetterGrade: "C", GradePoints: 5, Status: StatusPass,
			},
		},
		{
			name: "CIA rounds half up",
			// 51/90*40 = 22.67 -> 23
			assessments: marks(
				null.IntFrom(11), null.IntFrom(30), null.IntFrom(10),
				null.Int{}, null.Int{},
			),
			want: Totals{
				CIATotal: 23, TotalMarks: 23, Percentage: 23,
				LetterGrade: "F", Status: StatusFail,
			},
		},
		{
			name: "partial nulls count as zero",
			assessments: marks(
				null.IntFrom(20), null.Int{}, null.Int{},
				null.Int{}, null.IntFrom(50),
			),
			// CIA 20/90*40 = 8.89 -> 9; ESE 50/100*50 = 25
			want: Totals{
				CIATotal: 9, ESETotal: 25, TotalMarks: 34, Percentage: 34,
				LetterGrade: "F", Status: StatusFail,
			},
		},
		{
			name: "practical averages ceilings of scored experiments",
			experiments: []Experiment{
				experiment("Exp 1", null.IntFrom(4), null.IntFrom(5)),
				experiment("Exp 2", null.IntFrom(5), null.IntFrom(4)),
				experiment("Exp 3", null.Int{}, null.Int{}),
			},
			assessments: NewAssessmentSet(),
			// avg obs 4.5 -> 5, avg rec 4.5 -> 5, capped at 10
			want: Totals{
				PracticalTotal: 10, TotalMarks: 10, Percentage: 10,
				LetterGrade: "F", Status: StatusFail,
			},
		},
		{
			name:        "half-scored experiment ignored",
			assessments: NewAssessmentSet(),
			experiments: []Experiment{
				experiment("Exp 1", null.IntFrom(5), null.Int{}),
				experiment("Exp 2", null.IntFrom(2), null.IntFrom(3)),
			},
			want: Totals{
				PracticalTotal: 5, TotalMarks: 5, Percentage: 5,
				LetterGrade: "F", Status: StatusFail,
			},
		},
		{
			name:        "only first 3 experiments count",
			assessments: NewAssessmentSet(),
			experiments: []Experiment{
				experiment("Exp 1", null.Int{}, null.Int{}),
				experiment("Exp 2", null.Int{}, null.Int{}),
				experiment("Exp 3", null.Int{}, null.Int{}),
				experiment("Exp 4", null.IntFrom(5), null.IntFrom(5)),
			},
			want: Totals{LetterGrade: "F", Status: StatusFail},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTotals(tt.assessments, tt.experiments); got != tt.want {
				t.Errorf("ComputeTotals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeTotals_banding(t *testing.T) {
	// drive the percentage via MSE+ESE alone: raw/100*50 scaled.
	eseOnly := func(mse, ese int) AssessmentSet {
		return marks(null.Int{}, null.Int{}, null.Int{}, null.IntFrom(mse), null.IntFrom(ese))
	}
	fullCIA := marks(null.IntFrom(20), null.IntFrom(50), null.IntFrom(20), null.Int{}, null.Int{})

	tests := []struct {
		name        string
		assessments AssessmentSet
		percentage  int
		letter      string
		points      int
		status      string
	}{
		{"90 is A+", marks(null.IntFrom(20), null.IntFrom(50), null.IntFrom(20), null.IntFrom(50), null.IntFrom(50)), 90, "A+", 10, StatusPass},
		{"89 is A", marks(null.IntFrom(20), null.IntFrom(50), null.IntFrom(20), null.IntFrom(50), null.IntFrom(48)), 89, "A", 9, StatusPass},
		{"70 is B+", marks(null.IntFrom(20), null.IntFrom(50), null.IntFrom(20), null.IntFrom(30), null.IntFrom(30)), 70, "B+", 8, StatusPass},
		{"40 is C", fullCIA, 40, "C", 5, StatusPass},
		{"35 is D and passes", eseOnly(35, 35), 35, "D", 4, StatusPass},
		{"34 fails", eseOnly(34, 34), 34, "F", 0, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.assessments, nil)
			if got.Percentage != tt.percentage {
				t.Fatalf("Percentage = %d, want %d", got.Percentage, tt.percentage)
			}
			if got.LetterGrade != tt.letter || got.GradePoints != tt.points || got.Status != tt.status {
				t.Errorf("band = (%s, %d, %s), want (%s, %d, %s)",
					got.LetterGrade, got.GradePoints, got.Status, tt.letter, tt.points, tt.status)
			}
		})
	}
}

func TestComputeTotals_deterministic(t *testing.T) {
	assessments := marks(null.IntFrom(15), null.IntFrom(38), null.IntFrom(12), null.IntFrom(33), null.IntFrom(41))
	experiments := []Experiment{
		experiment("Exp 1", null.IntFrom(3), null.IntFrom(4)),
		experiment("Exp 2", null.IntFrom(4), null.IntFrom(4)),
	}

	first := ComputeTotals(assessments, experiments)
	for i := 0; i < 5; i++ {
		if got := ComputeTotals(assessments, experiments); got != first {
			t.Fatalf("ComputeTotals() not deterministic: %+v != %+v", got, first)
		}
	}
}
