package transfer

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"report.csv", "report.csv", false},
		{"a b/c.txt", "ab_c.txt", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
		{"../../etc/passwd", "", true},
		{"/etc/passwd", "", true},
		{`\windows\system32`, "", true},
		{"C:\\autoexec.bat", "", true},
		{"*?:<>|", "", true},
	}

	for _, c := range cases {
		got, err := SanitizeFilename(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("SanitizeFilename(%q) = %q, <nil>, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("SanitizeFilename(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
