package catalog

import (
	"strings"
	"testing"
)

func TestPolicyEligible(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		file   File
		want   bool
	}{
		{
			name:   "default extensions match js",
			policy: Policy{Extensions: DefaultExtensions},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 2048},
			want:   true,
		},
		{
			name:   "default extensions reject png",
			policy: Policy{Extensions: DefaultExtensions},
			file:   File{Path: "/dist/logo.png", RelPath: "logo.png", Size: 2048},
			want:   false,
		},
		{
			name:   "extension match is case-insensitive",
			policy: Policy{Extensions: DefaultExtensions},
			file:   File{Path: "/dist/APP.JS", RelPath: "APP.JS", Size: 2048},
			want:   true,
		},
		{
			name:   "size exactly at threshold passes",
			policy: Policy{Extensions: DefaultExtensions, MinSize: 1025},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 1025},
			want:   true,
		},
		{
			name:   "one byte below threshold rejected",
			policy: Policy{Extensions: DefaultExtensions, MinSize: 1025},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 1024},
			want:   false,
		},
		{
			name:   "zero threshold disables size check",
			policy: Policy{Extensions: DefaultExtensions},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 1},
			want:   true,
		},
		{
			name:   "pattern matches nested path",
			policy: Policy{Pattern: "assets/**/*.js"},
			file:   File{Path: "/dist/assets/js/app.js", RelPath: "assets/js/app.js", Size: 10},
			want:   true,
		},
		{
			name:   "pattern rejects other extension",
			policy: Policy{Pattern: "assets/**/*.js"},
			file:   File{Path: "/dist/assets/css/site.css", RelPath: "assets/css/site.css", Size: 10},
			want:   false,
		},
		{
			name:   "pattern match is case-insensitive",
			policy: Policy{Pattern: "**/*.JS"},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 10},
			want:   true,
		},
		{
			name:   "malformed pattern keeps all",
			policy: Policy{Pattern: "[invalid"},
			file:   File{Path: "/dist/logo.png", RelPath: "logo.png", Size: 10},
			want:   true,
		},
		{
			name:   "predicate overrides pattern and extensions",
			policy: Policy{Predicate: func(path string) bool { return strings.HasSuffix(path, ".wasm") }, Pattern: "**/*.js", Extensions: DefaultExtensions},
			file:   File{Path: "/dist/mod.wasm", RelPath: "mod.wasm", Size: 10},
			want:   true,
		},
		{
			name:   "predicate rejection is final",
			policy: Policy{Predicate: func(string) bool { return false }},
			file:   File{Path: "/dist/app.js", RelPath: "app.js", Size: 10},
			want:   false,
		},
		{
			name:   "empty policy keeps everything",
			policy: Policy{},
			file:   File{Path: "/dist/anything.bin", RelPath: "anything.bin", Size: 0},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Eligible(tt.file); got != tt.want {
				t.Errorf("Eligible(%q, size=%d) = %v, want %v",
					tt.file.RelPath, tt.file.Size, got, tt.want)
			}
		})
	}
}

func TestSelectPreservesOrder(t *testing.T) {
	files := []File{
		{Path: "/d/a.js", RelPath: "a.js", Size: 2000},
		{Path: "/d/skip.png", RelPath: "skip.png", Size: 2000},
		{Path: "/d/b.css", RelPath: "b.css", Size: 2000},
		{Path: "/d/tiny.js", RelPath: "tiny.js", Size: 10},
	}

	selected := Select(files, Policy{Extensions: DefaultExtensions, MinSize: 1025})

	if len(selected) != 2 {
		t.Fatalf("selected %d files, want 2", len(selected))
	}
	if selected[0].RelPath != "a.js" || selected[1].RelPath != "b.css" {
		t.Errorf("selection order: %q, %q; want a.js, b.css", selected[0].RelPath, selected[1].RelPath)
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	if policy.MinSize != 1025 {
		t.Errorf("default MinSize = %d, want 1025", policy.MinSize)
	}
	if len(policy.Extensions) != 5 {
		t.Errorf("default extension count = %d, want 5", len(policy.Extensions))
	}
	if !policy.Eligible(File{Path: "/d/app.js", RelPath: "app.js", Size: 1025}) {
		t.Error("default policy should accept a 1025-byte .js file")
	}
	if policy.Eligible(File{Path: "/d/app.js", RelPath: "app.js", Size: 1024}) {
		t.Error("default policy should reject a 1024-byte .js file")
	}
}
