package review

import (
	"fmt"
	"strings"
)

// Rating is the discrete verdict derived from counted issue markers.
type Rating string

const (
	RatingGood        Rating = "GOOD"
	RatingNeedsTriage Rating = "NEEDS FURTHER TRIAGE"
	RatingBad         Rating = "BAD"
)

// issueMarker is the case-insensitive token counted across item reviews.
const issueMarker = "issue"

// ItemReview is the review of a single item: a whole changed file, or
// one function within it when Function is set.
type ItemReview struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
	Changes   int
	Function  string
	Review    string
}

// RateByIssueCount maps an issue count to a rating:
// 0 is GOOD, 1-2 needs further triage, 3 or more is BAD.
func RateByIssueCount(count int) Rating {
	switch {
	case count == 0:
		return RatingGood
	case count < 3:
		return RatingNeedsTriage
	default:
		return RatingBad
	}
}

// Summarize folds item reviews into a summary document and a rating.
// Items appear in input order, grouped under a heading per file; the
// heading is emitted once per run of consecutive items sharing a
// filename, so file order is exactly the input file order. The rating
// counts items whose review text contains the issue marker.
func Summarize(items []ItemReview) (string, Rating) {
	var summary []string
	issues := 0

	lastFile := ""
	for i, item := range items {
		if i == 0 || item.Filename != lastFile {
			summary = append(summary, fmt.Sprintf("### %s (%s):", item.Filename, item.Status))
			lastFile = item.Filename
		}
		if item.Function != "" {
			summary = append(summary, fmt.Sprintf("- **Function `%s`:** %s", item.Function, item.Review))
		} else {
			summary = append(summary, fmt.Sprintf("- **Review:** %s", item.Review))
		}
		if strings.Contains(strings.ToLower(item.Review), issueMarker) {
			issues++
		}
	}

	return strings.Join(summary, "\n"), RateByIssueCount(issues)
}
