package truncation

import (
	"strings"
	"testing"
)

func TestLooksComplete(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: true},
		{name: "terminal period", text: "The plan is viable.", want: true},
		{name: "terminal question", text: "Shall we proceed?", want: true},
		{name: "terminal bang", text: "Ship it!", want: true},
		{name: "trailing whitespace", text: "All done.\n\n", want: true},
		{name: "end marker", text: "1. Coffee\n2. Tea\n[END]", want: true},
		{name: "mid sentence", text: "The market opportunity is", want: false},
		{name: "dangling bullet", text: "1. Coffee\n2. Te", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksComplete(tt.text); got != tt.want {
				t.Errorf("LooksComplete(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestListTarget(t *testing.T) {
	if n, ok := ListTarget("Give me the top 10 coffee brands"); !ok || n != 10 {
		t.Errorf("ListTarget = %d, %v", n, ok)
	}
	if n, ok := ListTarget("TOP 5 risks please"); !ok || n != 5 {
		t.Errorf("ListTarget = %d, %v", n, ok)
	}
	if _, ok := ListTarget("describe the market"); ok {
		t.Error("ListTarget matched a prompt without a top-N request")
	}
}

func TestLastListIndex(t *testing.T) {
	text := "Here you go:\n1. Espresso\n2. Filter\n  3. Cold brew"
	if got := LastListIndex(text); got != 3 {
		t.Errorf("LastListIndex = %d, want 3", got)
	}
	if got := LastListIndex("no lists here."); got != 0 {
		t.Errorf("LastListIndex = %d, want 0", got)
	}
	// Only line-start numbering counts as a list item.
	if got := LastListIndex("we need 5. more budget"); got != 0 {
		t.Errorf("LastListIndex counted a mid-line number: %d", got)
	}
}

func TestMergeContinuationJoinsDistinctText(t *testing.T) {
	got := MergeContinuation("First point.", "Second point.")
	if got != "First point.\n\nSecond point." {
		t.Errorf("MergeContinuation = %q", got)
	}
}

func TestMergeContinuationDropsRestatedOverlap(t *testing.T) {
	common := "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWX"
	base := common
	cont := common + " The end."

	got := MergeContinuation(base, cont)
	if got != common+" The end." {
		t.Errorf("MergeContinuation = %q", got)
	}
	if strings.Count(got, "abcdefghijklmnop") != 1 {
		t.Errorf("overlap duplicated: %q", got)
	}
}

func TestMergeContinuationEmptyInputs(t *testing.T) {
	if got := MergeContinuation("base text.", "   "); got != "base text." {
		t.Errorf("MergeContinuation with blank continuation = %q", got)
	}
	if got := MergeContinuation("", "fresh start."); got != "fresh start." {
		t.Errorf("MergeContinuation with empty base = %q", got)
	}
}
