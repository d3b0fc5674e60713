package gatekeeper

import (
	"fmt"
	"strings"

	"research-assistant-be/internal/entity"
)

var criteria = map[entity.ContentType][]string{
	entity.ContentTypeLiteratureSummary: {
		"Verify accuracy of key findings",
		"Check for potential bias in interpretation",
		"Validate treatment focus alignment",
		"Confirm population relevance",
		"Review confidence score justification",
	},
	entity.ContentTypeTreatmentComparison: {
		"Verify treatment efficacy claims",
		"Check for contraindications and warnings",
		"Validate population-specific considerations",
		"Review recommendation appropriateness",
		"Confirm source reliability",
	},
	entity.ContentTypeClinicalQuestion: {
		"Verify medical accuracy",
		"Check for appropriate disclaimers",
		"Validate evidence-based content",
		"Review recommendation safety",
	},
}

var reviewMinutes = map[entity.ContentType]int{
	entity.ContentTypeLiteratureSummary:   10,
	entity.ContentTypeTreatmentComparison: 15,
	entity.ContentTypeClinicalQuestion:    5,
	entity.ContentTypeGeneralMedical:      3,
}

func Criteria(ct entity.ContentType) []string {
	if c, ok := criteria[ct]; ok {
		return append([]string(nil), c...)
	}
	return []string{"General medical accuracy check"}
}

func EstimatedReviewMinutes(ct entity.ContentType) int {
	if m, ok := reviewMinutes[ct]; ok {
		return m
	}
	return 5
}

// ReviewPrompt is the checklist text shown to a reviewer.
func ReviewPrompt(a *entity.ApprovalRequest) string {
	var b strings.Builder
	switch a.ContentType {
	case entity.ContentTypeLiteratureSummary:
		b.WriteString("Please review this literature summary for accuracy and relevance.\n")
		for _, s := range a.Content.Summaries {
			fmt.Fprintf(&b, "Title: %s (%s)\nKey findings: %s\n", s.Title, s.Journal, strings.Join(s.KeyFindings, "; "))
		}
	case entity.ContentTypeTreatmentComparison:
		b.WriteString("Please review this treatment comparison for clinical accuracy.\n")
		for _, c := range a.Content.Comparisons {
			fmt.Fprintf(&b, "Treatments: %s\nRecommendation: %s\n", strings.Join(c.Treatments, ", "), c.Recommendation)
		}
	case entity.ContentTypeClinicalQuestion:
		b.WriteString("Please review this clinical response for accuracy and safety.\n")
		fmt.Fprintf(&b, "Response: %s\n", truncate(a.Content.Text, 200))
	default:
		b.WriteString("Please review this content for medical accuracy and appropriateness.\n")
	}
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", a.Confidence*100)
	for _, c := range a.Criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

// Summary aggregates review activity.
type Summary struct {
	Total                int                        `json:"total_approvals"`
	Approved             int                        `json:"approved"`
	Rejected             int                        `json:"rejected"`
	RevisionRequested    int                        `json:"revision_requested"`
	Pending              int                        `json:"pending"`
	AutoApproved         int                        `json:"auto_approved"`
	Escalated            int                        `json:"escalated"`
	ApprovalRate         float64                    `json:"approval_rate"`
	AverageReviewMinutes float64                    `json:"average_review_time_minutes"`
	ContentTypeBreakdown map[entity.ContentType]int `json:"content_type_breakdown"`
}

func Summarize(requests []*entity.ApprovalRequest) Summary {
	s := Summary{Total: len(requests), ContentTypeBreakdown: map[entity.ContentType]int{}}
	var reviewedMinutes float64
	reviewed := 0
	for _, a := range requests {
		switch a.Status {
		case entity.ApprovalStatusApproved:
			s.Approved++
		case entity.ApprovalStatusRejected:
			s.Rejected++
		case entity.ApprovalStatusRevisionRequested:
			s.RevisionRequested++
		default:
			s.Pending++
		}
		if a.AutoApproved {
			s.AutoApproved++
		}
		if a.Escalated {
			s.Escalated++
		}
		if a.ReviewedAt != nil && !a.AutoApproved {
			reviewedMinutes += a.ReviewedAt.Sub(a.CreatedAt).Minutes()
			reviewed++
		}
		s.ContentTypeBreakdown[a.ContentType]++
	}
	if s.Total > 0 {
		s.ApprovalRate = float64(s.Approved) / float64(s.Total)
	}
	if reviewed > 0 {
		s.AverageReviewMinutes = reviewedMinutes / float64(reviewed)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
