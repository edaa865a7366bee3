// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny max", "hello", 2, "he"},
		{"zero max", "hello", 0, ""},
		{"unicode safe", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateRunes(tc.in, tc.max); got != tc.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
	}{
		{"ascii", "hello world", 8},
		{"cjk double width", "日本語のテキスト", 8},
		{"mixed", "abc日本語", 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateWidth(tc.in, tc.max)
			if StringWidth(got) > tc.max {
				t.Errorf("TruncateWidth(%q, %d) = %q, width %d exceeds max", tc.in, tc.max, got, StringWidth(got))
			}
		})
	}
}

func TestTruncateWidth_ShortStringUnchanged(t *testing.T) {
	if got := TruncateWidth("hi", 10); got != "hi" {
		t.Errorf("TruncateWidth short = %q, want unchanged", got)
	}
}
