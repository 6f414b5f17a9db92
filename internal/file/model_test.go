package file

import "testing"

func TestCategoryFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     Category
	}{
		{"report.pdf", CategoryDocument},
		{"photo.JPG", CategoryImage},
		{"clip.webm", CategoryVideo},
		{"song.flac", CategoryAudio},
		{"backup.tar", CategoryArchive},
		{"main.go", CategoryCode},
		{"archive.tar.gz", CategoryArchive},
		{"noextension", CategoryOther},
		{"weird.xyz", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		if got := CategoryFromFilename(tt.filename); got != tt.want {
			t.Errorf("CategoryFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		in   string
		want Visibility
		ok   bool
	}{
		{"private", VisibilityPrivate, true},
		{"public", VisibilityPublic, true},
		{"PUBLIC", VisibilityPublic, true},
		{" private ", VisibilityPrivate, true},
		{"hidden", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseVisibility(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseVisibility(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
