package model

import "testing"

func TestWindowsOverlap(t *testing.T) {
	year := func(v int) *int { return &v }

	cases := []struct {
		name   string
		fromA  int
		untilA *int
		fromB  int
		untilB *int
		want   bool
	}{
		{"adjacent windows do not overlap", 2009, year(2024), 2024, nil, false},
		{"contained window overlaps", 2000, year(2030), 2010, year(2020), true},
		{"two open windows overlap", 1999, nil, 2024, nil, true},
		{"open window covers later closed window", 2010, nil, 2020, year(2022), true},
		{"disjoint closed windows", 2000, year(2005), 2010, year(2015), false},
		{"identical windows overlap", 2010, year(2020), 2010, year(2020), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WindowsOverlap(tc.fromA, tc.untilA, tc.fromB, tc.untilB); got != tc.want {
				t.Errorf("WindowsOverlap = %t, want %t", got, tc.want)
			}
			// Overlap is symmetric.
			if got := WindowsOverlap(tc.fromB, tc.untilB, tc.fromA, tc.untilA); got != tc.want {
				t.Errorf("WindowsOverlap reversed = %t, want %t", got, tc.want)
			}
		})
	}
}
