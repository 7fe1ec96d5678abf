package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestYearMonth_DateOn_Clamps(t *testing.T) {
	tests := []struct {
		name  string
		month YearMonth
		day   int
		want  Date
	}{
		{name: "day 31 in april", month: YearMonth{2024, time.April}, day: 31, want: NewDate(2024, time.April, 30)},
		{name: "day 31 in february non-leap", month: YearMonth{2023, time.February}, day: 31, want: NewDate(2023, time.February, 28)},
		{name: "day 30 in february leap", month: YearMonth{2024, time.February}, day: 30, want: NewDate(2024, time.February, 29)},
		{name: "day 29 in february leap", month: YearMonth{2024, time.February}, day: 29, want: NewDate(2024, time.February, 29)},
		{name: "day 31 in january", month: YearMonth{2024, time.January}, day: 31, want: NewDate(2024, time.January, 31)},
		{name: "day 15 unchanged", month: YearMonth{2024, time.June}, day: 15, want: NewDate(2024, time.June, 15)},
		{name: "century non-leap", month: YearMonth{2100, time.February}, day: 29, want: NewDate(2100, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.month.DateOn(tt.day)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if !got.Valid() {
				t.Errorf("expected clamped date %s to be valid", got)
			}
		})
	}
}

func TestYearMonth_AddMonths(t *testing.T) {
	tests := []struct {
		start YearMonth
		n     int
		want  YearMonth
	}{
		{YearMonth{2024, time.January}, 0, YearMonth{2024, time.January}},
		{YearMonth{2024, time.November}, 2, YearMonth{2025, time.January}},
		{YearMonth{2024, time.January}, -1, YearMonth{2023, time.December}},
		{YearMonth{2024, time.March}, 25, YearMonth{2026, time.April}},
		{YearMonth{2024, time.March}, -27, YearMonth{2021, time.December}},
	}

	for _, tt := range tests {
		got := tt.start.AddMonths(tt.n)
		if got != tt.want {
			t.Errorf("%s + %d: expected %s, got %s", tt.start, tt.n, tt.want, got)
		}
		if back := got.MonthsSince(tt.start); back != tt.n {
			t.Errorf("MonthsSince(%s, %s): expected %d, got %d", got, tt.start, tt.n, back)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2024, time.March, 5) {
		t.Fatalf("unexpected date %s", d)
	}

	for _, bad := range []string{"", "2024-02-30", "2024-13-01", "05/03/2024", "2024-03-05T00:00:00Z"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDate_Valid(t *testing.T) {
	if (Date{}).Valid() {
		t.Error("zero date must be invalid")
	}
	if NewDate(2023, time.February, 29).Valid() {
		t.Error("2023-02-29 must be invalid")
	}
	if !NewDate(2024, time.February, 29).Valid() {
		t.Error("2024-02-29 must be valid")
	}
}

func TestDate_Compare(t *testing.T) {
	a := NewDate(2024, time.March, 1)
	b := NewDate(2024, time.March, 5)
	c := NewDate(2025, time.January, 1)

	if !a.Before(b) || !b.Before(c) || !c.After(a) {
		t.Fatal("unexpected ordering")
	}
	if a.Compare(a) != 0 {
		t.Fatal("date must equal itself")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type payload struct {
		On    Date      `json:"on"`
		Month YearMonth `json:"month"`
	}

	in := payload{On: NewDate(2024, time.April, 30), Month: YearMonth{2024, time.April}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `{"on":"2024-04-30","month":"2024-04"}` {
		t.Fatalf("unexpected json %s", b)
	}

	var out payload
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestParseYearMonth_Invalid(t *testing.T) {
	for _, bad := range []string{"2024-13", "2024", "march", "2024-3-1"} {
		if _, err := ParseYearMonth(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
