package tui

import (
	"testing"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		// Supported: inspect commands
		{"inspect_config", true},
		{"inspect_draft", true},

		// Supported: stats commands
		{"stats_metrics", true},

		// Not supported: list commands
		{"list_drafts", false},

		// Not supported: config get
		{"config_get", false},

		// Not supported: version
		{"version", false},

		// Not supported: process
		{"process", false},

		// Not supported: unknown
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestSupportedTUIViews(t *testing.T) {
	views := SupportedTUIViews()

	// Should have exactly 3 supported views (2 inspect + 1 stats)
	if len(views) != 3 {
		t.Errorf("SupportedTUIViews() returned %d views, expected 3", len(views))
	}

	// All returned views should be supported
	for _, v := range views {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("list_drafts", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}
