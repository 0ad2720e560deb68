package feedback

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResult_Sufficient(t *testing.T) {
	var nilResult *Result
	if nilResult.Sufficient() {
		t.Error("nil result must not be sufficient")
	}
	if (&Result{Summary: "  \n"}).Sufficient() {
		t.Error("blank summary must not be sufficient")
	}
	if !(&Result{Summary: "Clear and warm."}).Sufficient() {
		t.Error("result with a summary must be sufficient")
	}
}

func TestResult_ComputedFor(t *testing.T) {
	r := &Result{Summary: "ok", ContentDigest: Digest("hello")}
	if !r.ComputedFor("hello") {
		t.Error("expected match for the reviewed content")
	}
	if r.ComputedFor("hello ") {
		t.Error("any edit must invalidate the digest")
	}
	var nilResult *Result
	if nilResult.ComputedFor("hello") {
		t.Error("nil result is computed for nothing")
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in, max, want float64
	}{
		{7.5, 10, 7.5},
		{-1, 10, 0},
		{11, 10, 10},
		{150, 100, 100},
		{math.NaN(), 10, 0},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in, tt.max); got != tt.want {
			t.Errorf("ClampScore(%v, %v) = %v, want %v", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCleanStrings(t *testing.T) {
	got := CleanStrings([]string{" a ", "", "  ", "b"})
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("CleanStrings mismatch (-want +got):\n%s", diff)
	}
	if CleanStrings(nil) == nil {
		t.Error("result must never be nil")
	}
}

func TestCleanQuotes(t *testing.T) {
	got := CleanQuotes([]QuotedImprovement{
		{OriginalText: "I like coding.", ImprovedText: "I build tools.", Explanation: "  concrete  "},
		{OriginalText: " ", ImprovedText: "orphan"},
		{OriginalText: "kept out", ImprovedText: ""},
	})
	want := []QuotedImprovement{{OriginalText: "I like coding.", ImprovedText: "I build tools.", Explanation: "concrete"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanQuotes mismatch (-want +got):\n%s", diff)
	}
}
