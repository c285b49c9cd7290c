package review

import (
	"strings"
	"testing"
)

func TestRateByIssueCount(t *testing.T) {
	tests := []struct {
		count int
		want  Rating
	}{
		{0, RatingGood},
		{1, RatingNeedsTriage},
		{2, RatingNeedsTriage},
		{3, RatingBad},
		{10, RatingBad},
	}

	for _, tt := range tests {
		if got := RateByIssueCount(tt.count); got != tt.want {
			t.Errorf("RateByIssueCount(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	items := []ItemReview{
		{Filename: "a.py", Status: "modified", Review: "Clean refactor."},
		{Filename: "b.py", Status: "added", Review: "Looks good."},
	}

	summary, rating := Summarize(items)

	if rating != RatingGood {
		t.Errorf("rating = %v, want %v", rating, RatingGood)
	}

	aIdx := strings.Index(summary, "### a.py (modified):")
	bIdx := strings.Index(summary, "### b.py (added):")
	if aIdx < 0 || bIdx < 0 {
		t.Fatalf("summary missing file headings:\n%s", summary)
	}
	if aIdx > bIdx {
		t.Errorf("file headings out of input order:\n%s", summary)
	}
	if !strings.Contains(summary, "- **Review:** Clean refactor.") {
		t.Errorf("summary missing review line:\n%s", summary)
	}
}

func TestSummarizeCountsFlaggedItems(t *testing.T) {
	// The rating counts items whose text contains the marker, not marker
	// occurrences, so repeated markers in one item still count once.
	tests := []struct {
		name    string
		reviews []string
		want    Rating
	}{
		{"no marker", []string{"All good here.", "Clean."}, RatingGood},
		{"one flagged item", []string{"Issue: possible null deref.", "Fine."}, RatingNeedsTriage},
		{"repeated marker counts once", []string{"issue, ISSUE, Issue."}, RatingNeedsTriage},
		{"two flagged items", []string{"Issue here.", "Another issue there."}, RatingNeedsTriage},
		{"three flagged items", []string{"Issue A.", "Issue B.", "Issue C."}, RatingBad},
		{"marker inside a word", []string{"No issues found."}, RatingNeedsTriage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]ItemReview, len(tt.reviews))
			for i, review := range tt.reviews {
				items[i] = ItemReview{Filename: "f.py", Status: "modified", Review: review}
			}
			_, rating := Summarize(items)
			if rating != tt.want {
				t.Errorf("rating = %v, want %v", rating, tt.want)
			}
		})
	}
}

func TestSummarizeFunctionItems(t *testing.T) {
	items := []ItemReview{
		{Filename: "a.py", Status: "modified", Function: "parse", Review: "Fine."},
		{Filename: "a.py", Status: "modified", Function: "render", Review: "Fine."},
		{Filename: "b.py", Status: "added", Review: "Fine."},
	}

	summary, _ := Summarize(items)

	// One heading per run of consecutive same-file items
	if strings.Count(summary, "### a.py (modified):") != 1 {
		t.Errorf("expected a single heading for a.py:\n%s", summary)
	}
	if !strings.Contains(summary, "- **Function `parse`:** Fine.") {
		t.Errorf("summary missing function line:\n%s", summary)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary, rating := Summarize(nil)
	if summary != "" {
		t.Errorf("summary = %q, want empty", summary)
	}
	if rating != RatingGood {
		t.Errorf("rating = %v, want %v", rating, RatingGood)
	}
}
