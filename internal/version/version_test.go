package version

import "testing"

func TestSemantic(t *testing.T) {
	testcases := []struct {
		in       string
		expected string
	}{
		{in: "1.2.3", expected: "1.2.3"},
		{in: "v1.2.3", expected: "1.2.3"},
		{in: "1.2", expected: "1.2.0"},
		{in: "2.0.0-rc.1", expected: "2.0.0-rc.1"},
		{in: "{{version}}", expected: devVersion},
		{in: "", expected: devVersion},
	}

	for _, tc := range testcases {
		if got := semantic(tc.in); got != tc.expected {
			t.Errorf("semantic(%q) = %q, want %q", tc.in, got, tc.expected)
		}
	}
}

func TestDay(t *testing.T) {
	testcases := []struct {
		in       string
		expected string
	}{
		{in: "2026-10-19", expected: "2026-10-19"},
		{in: "2018/12/19", expected: "2018-12-19"},
		{in: "2026-10-19T14:03:55Z", expected: "2026-10-19"},
		{in: "someday", expected: "someday"},
	}

	for _, tc := range testcases {
		if got := day(tc.in); got != tc.expected {
			t.Errorf("day(%q) = %q, want %q", tc.in, got, tc.expected)
		}
	}
}

func TestStringAndEpilog(t *testing.T) {
	oldVersion, oldDate, oldAuthor, oldEmail := Version, Date, Author, Email
	t.Cleanup(func() {
		Version, Date, Author, Email = oldVersion, oldDate, oldAuthor, oldEmail
	})

	Version, Date = "v0.3.1", "2026/01/02"
	if got, want := String(), "version 0.3.1, date 2026-01-02"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	Author, Email = "", ""
	if got := Epilog(); got != "" {
		t.Errorf("Epilog() = %q, want empty", got)
	}

	Author = "Jane Doe"
	if got, want := Epilog(), "Copyright Jane Doe"; got != want {
		t.Errorf("Epilog() = %q, want %q", got, want)
	}

	Email = "jane@example.com"
	if got, want := Epilog(), "Copyright Jane Doe (jane@example.com)"; got != want {
		t.Errorf("Epilog() = %q, want %q", got, want)
	}
}
