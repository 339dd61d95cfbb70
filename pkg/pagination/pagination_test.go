package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: 20}},
		{Params{Page: -3, Limit: -1}, Params{Page: 1, Limit: 20}},
		{Params{Page: 4, Limit: 50}, Params{Page: 4, Limit: 50}},
		{Params{Page: 2, Limit: 1000}, Params{Page: 2, Limit: 100}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
}

func TestTotalPages(t *testing.T) {
	if got := TotalPages(0, 20); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
	if got := TotalPages(41, 20); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := TotalPages(40, 20); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
}
