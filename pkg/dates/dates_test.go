package dates

import "testing"

func TestParseUserRejectsInvalidCalendarDates(t *testing.T) {
	bad := []string{
		"2023-02-30",
		"2023-13-01",
		"2023-00-10",
		"2023-4-15",
		"15-04-2023",
		"2023/04/15",
		"not a date",
		"",
	}
	for _, s := range bad {
		if _, err := ParseUser(s); err == nil {
			t.Fatalf("ParseUser(%q) should fail", s)
		}
	}
	if _, err := ParseUser("2024-02-29"); err != nil {
		t.Fatalf("2024-02-29 is a valid leap day: %v", err)
	}
}

func TestParseDatabaseRejectsInvalidInstants(t *testing.T) {
	bad := []string{
		"2023-04-15T25:00:00Z",
		"2023-04-15T10:60:00Z",
		"2023-04-15",
		"2023-04-15T10:00:00",
	}
	for _, s := range bad {
		if _, err := ParseDatabase(s); err == nil {
			t.Fatalf("ParseDatabase(%q) should fail", s)
		}
	}
	good := []string{"2023-04-15T00:00:00Z", "2023-04-15T10:30:00+02:00"}
	for _, s := range good {
		if _, err := ParseDatabase(s); err != nil {
			t.Fatalf("ParseDatabase(%q): %v", s, err)
		}
	}
}

func TestUserDatabaseRoundTrip(t *testing.T) {
	days := []string{"2023-04-15", "2024-02-29", "1999-12-31", "2024-01-01"}
	for _, day := range days {
		db, err := UserToDatabase(day)
		if err != nil {
			t.Fatalf("UserToDatabase(%q): %v", day, err)
		}
		back, err := DatabaseToUser(db)
		if err != nil {
			t.Fatalf("DatabaseToUser(%q): %v", db, err)
		}
		if back != day {
			t.Fatalf("round trip %q -> %q -> %q", day, db, back)
		}
	}
}

func TestDatabaseToDisplay(t *testing.T) {
	db, err := UserToDatabase("2024-01-15")
	if err != nil {
		t.Fatalf("UserToDatabase: %v", err)
	}
	display, err := DatabaseToDisplay(db)
	if err != nil {
		t.Fatalf("DatabaseToDisplay: %v", err)
	}
	if display != "January 15, 2024" {
		t.Fatalf("display = %q, want %q", display, "January 15, 2024")
	}
}

func TestComparisons(t *testing.T) {
	a := "2023-04-15T00:00:00Z"
	b := "2023-04-16T00:00:00Z"
	before, err := IsBefore(a, b)
	if err != nil || !before {
		t.Fatalf("IsBefore(%q, %q) = %v, %v", a, b, before, err)
	}
	after, err := IsAfter(a, b)
	if err != nil || after {
		t.Fatalf("IsAfter(%q, %q) = %v, %v", a, b, after, err)
	}
	same, err := IsBefore(a, a)
	if err != nil || same {
		t.Fatalf("IsBefore(a, a) = %v, %v", same, err)
	}
	if _, err := IsBefore("garbage", b); err == nil {
		t.Fatalf("expected error for invalid operand")
	}
}

func TestAddDaysAndDaysBetween(t *testing.T) {
	start := "2023-04-15T00:00:00Z"
	shifted, err := AddDays(start, 30)
	if err != nil {
		t.Fatalf("AddDays: %v", err)
	}
	if shifted != "2023-05-15T00:00:00Z" {
		t.Fatalf("AddDays(+30) = %q", shifted)
	}
	n, err := DaysBetween(start, shifted)
	if err != nil || n != 30 {
		t.Fatalf("DaysBetween = %d, %v, want 30", n, err)
	}
	n, err = DaysBetween(shifted, start)
	if err != nil || n != -30 {
		t.Fatalf("reverse DaysBetween = %d, %v, want -30", n, err)
	}
	back, err := AddDays(shifted, -30)
	if err != nil || back != start {
		t.Fatalf("AddDays(-30) = %q, %v, want %q", back, err, start)
	}
}
