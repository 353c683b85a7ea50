package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSubscriberKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    SubscriberKey
		wantErr bool
	}{
		{
			name: "group chat",
			in:   "telegram:GroupMessage:-10012345",
			want: SubscriberKey{Transport: "telegram", Kind: "GroupMessage", Scope: "-10012345"},
		},
		{
			name: "scope containing colons",
			in:   "aipcqhttp:GroupMessage:guild:42",
			want: SubscriberKey{Transport: "aipcqhttp", Kind: "GroupMessage", Scope: "guild:42"},
		},
		{
			name:    "too few segments",
			in:      "telegram:12345",
			wantErr: true,
		},
		{
			name:    "empty segment",
			in:      "telegram::12345",
			wantErr: true,
		},
		{
			name:    "empty string",
			in:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubscriberKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestMatchesScope(t *testing.T) {
	key := SubscriberKey{Transport: "telegram", Kind: "GroupMessage", Scope: "777"}

	if !key.MatchesScope("777") {
		t.Error("scope segment must match")
	}
	if !key.MatchesScope("telegram:GroupMessage:777") {
		t.Error("verbatim key must match")
	}
	if key.MatchesScope("77") {
		t.Error("prefix of scope must not match")
	}
	if key.MatchesScope("GroupMessage") {
		t.Error("kind segment must not match")
	}
}
