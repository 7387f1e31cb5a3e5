package analytics

// Two seasonal models exist and are never mixed: the classic forecast uses
// a small-magnitude cyclical array, the smart forecast uses an academic
// calendar keyed by month number. Both are fixed at build time.

// classicSeasonality is indexed by month-1 (January first).
var classicSeasonality = [12]float64{
	0.02, 0.03, 0.04, 0.02, 0.01, -0.02,
	-0.03, -0.02, 0.05, 0.06, 0.05, 0.04,
}

// academicSeasonality models the school-year borrowing cycle: quiet over
// Tet and the summer break, peaking at the start of the autumn term.
var academicSeasonality = map[int]float64{
	1:  -0.05,
	2:  -0.10,
	3:  0.08,
	4:  0.05,
	5:  0.02,
	6:  -0.08,
	7:  -0.10,
	8:  0.04,
	9:  0.18,
	10: 0.12,
	11: 0.08,
	12: 0.03,
}

// ClassicSeasonalFactor returns the classic cyclical adjustment for a
// calendar month (1..12).
func ClassicSeasonalFactor(monthNumber int) float64 {
	return classicSeasonality[(monthNumber-1)%12]
}

// AcademicSeasonalFactor returns the academic-calendar adjustment for a
// calendar month (1..12).
func AcademicSeasonalFactor(monthNumber int) float64 {
	return academicSeasonality[(monthNumber-1)%12+1]
}
