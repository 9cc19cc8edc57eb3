package platform

import "testing"

func TestFromGOOS(t *testing.T) {
	tests := []struct {
		goos string
		want Platform
	}{
		{"linux", Linux},
		{"windows", Windows},
		{"darwin", Darwin},
		{"freebsd", "Freebsd"},
	}
	for _, tt := range tests {
		if got := FromGOOS(tt.goos); got != tt.want {
			t.Errorf("FromGOOS(%q) = %q, want %q", tt.goos, got, tt.want)
		}
	}
}

func TestIsWindows(t *testing.T) {
	if !Windows.IsWindows() {
		t.Error("Windows.IsWindows() = false")
	}
	if Linux.IsWindows() {
		t.Error("Linux.IsWindows() = true")
	}
}
