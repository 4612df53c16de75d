package cli

import (
	"reflect"
	"testing"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1", []int{1}, false},
		{"1,2,3", []int{1, 2, 3}, false},
		{"3,1,2", []int{1, 2, 3}, false},
		{"1-4", []int{1, 2, 3, 4}, false},
		{"1,3,5-7", []int{1, 3, 5, 6, 7}, false},
		{"2,2,2", []int{2}, false},
		{" 1 , 2 ", []int{1, 2}, false},
		{"", nil, false},
		{"0", nil, true},
		{"-1", nil, true},
		{"5-2", nil, true},
		{"a", nil, true},
		{"1-b", nil, true},
	}
	for _, tt := range tests {
		got, err := parsePages(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePages(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePages(%q) error: %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parsePages(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatPages(t *testing.T) {
	tests := []struct {
		in   []int
		want string
	}{
		{nil, ""},
		{[]int{1}, "1"},
		{[]int{1, 2, 3}, "1-3"},
		{[]int{1, 2, 3, 5}, "1-3,5"},
		{[]int{1, 3, 5}, "1,3,5"},
		{[]int{4, 5, 9, 10, 11}, "4-5,9-11"},
	}
	for _, tt := range tests {
		if got := formatPages(tt.in); got != tt.want {
			t.Errorf("formatPages(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
