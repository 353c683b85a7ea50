package bot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOwnerID(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int64
		wantErr bool
	}{
		{name: "plain", args: "12345", want: 12345},
		{name: "surrounding space", args: "  12345  ", want: 12345},
		{name: "extra tokens", args: "12345 trailing", want: 12345},
		{name: "empty", args: "", wantErr: true},
		{name: "not a number", args: "abc", wantErr: true},
		{name: "negative", args: "-5", wantErr: true},
		{name: "zero", args: "0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOwnerID(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOwnerID(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOwnerID(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    FilterArgs
		wantErr bool
	}{
		{
			name: "types only",
			args: "12345 types=video,draw",
			want: FilterArgs{OwnerID: 12345, Types: []string{"video", "draw"}, Regex: []string{}},
		},
		{
			name: "single regex",
			args: "12345 regex=raffle",
			want: FilterArgs{OwnerID: 12345, Types: []string{}, Regex: []string{"raffle"}},
		},
		{
			name: "repeated regex",
			args: "12345 regex=one regex=two",
			want: FilterArgs{OwnerID: 12345, Types: []string{}, Regex: []string{"one", "two"}},
		},
		{
			name: "types and regex",
			args: "12345 types=video regex=raffle",
			want: FilterArgs{OwnerID: 12345, Types: []string{"video"}, Regex: []string{"raffle"}},
		},
		{
			name: "clear",
			args: "12345 clear",
			want: FilterArgs{OwnerID: 12345, Types: []string{}, Regex: []string{}},
		},
		{
			name: "empty type entries dropped",
			args: "12345 types=video,,draw,",
			want: FilterArgs{OwnerID: 12345, Types: []string{"video", "draw"}, Regex: []string{}},
		},
		{name: "no arguments", args: "", wantErr: true},
		{name: "uid only", args: "12345", wantErr: true},
		{name: "bad uid", args: "abc types=video", wantErr: true},
		{name: "unknown argument", args: "12345 bogus=1", wantErr: true},
		{name: "only empty types", args: "12345 types=,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilterArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilterArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFilterArgs(%q) mismatch (-want +got):\n%s", tt.args, diff)
			}
		})
	}
}

func TestParseScopeArg(t *testing.T) {
	if _, err := ParseScopeArg("   "); err == nil {
		t.Error("ParseScopeArg with blank input, want error")
	}
	got, err := ParseScopeArg(" -100200 ")
	if err != nil {
		t.Fatalf("ParseScopeArg: %v", err)
	}
	if got != "-100200" {
		t.Errorf("ParseScopeArg = %q, want %q", got, "-100200")
	}
}
