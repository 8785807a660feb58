package buildinfo

import "testing"

func TestShort(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	tests := []struct {
		version, commit, want string
	}{
		{"dev", "none", "dev"},
		{"v0.3.0", "", "v0.3.0"},
		{"v0.3.0", "1a2b3c4d5e6f", "v0.3.0 (1a2b3c4)"},
		{"v0.3.0", "abc", "v0.3.0 (abc)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Short(); got != tt.want {
			t.Errorf("Short() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}
