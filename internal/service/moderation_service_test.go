package service

import (
	"strings"
	"testing"

	"depanku-backend/internal/models"
)

func cleanOpportunity() *models.Opportunity {
	return &models.Opportunity{
		Title:     "Summer Research Fellowship",
		Organizer: "National Science Institute",
		Tags:      models.StringList{"research", "science"},
		Description: "A ten week mentored research placement for high school " +
			"students interested in laboratory science. Participants join an " +
			"active research group and present their findings at the end.",
	}
}

func TestReviewCleanListingPasses(t *testing.T) {
	issues, notes := NewModerationService().Review(cleanOpportunity())
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if notes != "" {
		t.Fatalf("expected empty notes, got %q", notes)
	}
}

func TestReviewMissingFields(t *testing.T) {
	opp := &models.Opportunity{Description: "too short"}
	issues, notes := NewModerationService().Review(opp)

	if len(issues) < 4 {
		t.Fatalf("expected issues for title, description, organizer and tags, got %v", issues)
	}
	if notes == "" {
		t.Fatal("expected reviewer notes when issues exist")
	}
}

func TestReviewBannedPhrase(t *testing.T) {
	opp := cleanOpportunity()
	opp.Description += " Guaranteed admission for every applicant who signs up early."

	issues, _ := NewModerationService().Review(opp)
	if !containsIssue(issues, "guaranteed admission") {
		t.Fatalf("expected banned phrase issue, got %v", issues)
	}
}

func TestReviewContactLeak(t *testing.T) {
	opp := cleanOpportunity()
	opp.Description += " Questions? Email organizer@example.com or call +62 812 3456 7890."

	issues, _ := NewModerationService().Review(opp)
	if !containsIssue(issues, "contact emails") {
		t.Fatalf("expected email leak issue, got %v", issues)
	}
	if !containsIssue(issues, "phone numbers") {
		t.Fatalf("expected phone leak issue, got %v", issues)
	}
}

func TestReviewLinkDensity(t *testing.T) {
	opp := cleanOpportunity()
	opp.Description += strings.Repeat(" see https://example.com/page", 6)

	issues, _ := NewModerationService().Review(opp)
	if !containsIssue(issues, "links") {
		t.Fatalf("expected link density issue, got %v", issues)
	}
}

func containsIssue(issues []string, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(strings.ToLower(issue), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}
