package security

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Jon", want: "Jon"},
		{in: "  Jon  ", want: "Jon"},
		{in: "<b>Jon</b>", want: "Jon"},
		{in: "Tom & Jerry", want: "Tom & Jerry"},
		{in: "<script>alert(1)</script>", want: ""},
		{in: "O'Brien", want: "O'Brien"},
		{in: "&lt;b&gt;Jon&lt;/b&gt;", want: "Jon"},
		{in: "&amp;lt;script&amp;gt;x&amp;lt;/script&amp;gt;", want: ""},
		{in: "Salt &amp; Pepper", want: "Salt & Pepper"},
		{in: "1 &lt; 2", want: "1 < 2"},
		{in: "&lt;<b>i&gt;Jon", want: "Jon"},
	}

	s := NewDisplayNameSanitizer()
	for _, tt := range tests {
		if got := s.Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
