package text

import (
	"reflect"
	"testing"
)

func TestIsCJK(t *testing.T) {
	for _, r := range "你好ひらカタ한글" {
		if !IsCJK(r) {
			t.Errorf("IsCJK(%q) = false; want true", r)
		}
	}

	for _, r := range "abc1 ,.é" {
		if IsCJK(r) {
			t.Errorf("IsCJK(%q) = true; want false", r)
		}
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"low lower", []string{"low", "lower"}},
		{"  spaced\tout\n", []string{"spaced", "out"}},
		{"你好", []string{"你", "好"}},
		{"hello你好world", []string{"hello", "你", "好", "world"}},
		{"カタ kana", []string{"カ", "タ", "kana"}},
		{"", nil},
	}

	for _, tc := range tests {
		got := SplitWords(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitWords(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseCJKSpaces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"你 好", "你好"},
		{"hello 你 好 world", "hello你好world"},
		{"low lower", "low lower"},
		{"a  b", "a  b"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := CollapseCJKSpaces(tc.in); got != tc.want {
			t.Errorf("CollapseCJKSpaces(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
