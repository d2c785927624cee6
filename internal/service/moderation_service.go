package service

import (
	"fmt"
	"regexp"
	"strings"

	"depanku-backend/internal/models"
	"depanku-backend/pkg/validator"
)

// ModerationService runs the automated checks an opportunity must pass
// before it can be published. It never mutates the listing.
type ModerationService struct {
	bannedPhrases []string
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d[\d\s\-()]{8,}\d)`)
	linkPattern  = regexp.MustCompile(`https?://[^\s]+`)
)

const (
	minDescriptionLength = 80
	maxLinkCount         = 5
)

func NewModerationService() *ModerationService {
	return &ModerationService{
		bannedPhrases: []string{
			"guaranteed admission",
			"pay to win",
			"100% acceptance",
			"no application needed",
			"wire transfer",
			"processing fee required",
		},
	}
}

// Review returns the list of publish-blocking issues found in the
// listing, plus reviewer-facing notes. An empty issue list means the
// listing may be published.
func (s *ModerationService) Review(opp *models.Opportunity) (issues []string, notes string) {
	title := strings.TrimSpace(opp.Title)
	description := strings.TrimSpace(validator.SanitizeString(opp.Description))

	if title == "" {
		issues = append(issues, "Title is required before publishing.")
	}
	if len(description) < minDescriptionLength {
		issues = append(issues, fmt.Sprintf("Description must be at least %d characters.", minDescriptionLength))
	}
	if opp.Organizer == "" {
		issues = append(issues, "Organizer is required before publishing.")
	}
	if len(opp.Tags) == 0 {
		issues = append(issues, "Add at least one tag so students can find this listing.")
	}

	lowered := strings.ToLower(title + " " + description)
	for _, phrase := range s.bannedPhrases {
		if strings.Contains(lowered, phrase) {
			issues = append(issues, fmt.Sprintf("Remove the phrase %q.", phrase))
		}
	}

	if emailPattern.MatchString(description) {
		issues = append(issues, "Move contact emails into the dedicated contact field.")
	}
	if phonePattern.MatchString(description) {
		issues = append(issues, "Move phone numbers into the dedicated contact field.")
	}

	if links := linkPattern.FindAllString(description, -1); len(links) > maxLinkCount {
		issues = append(issues, fmt.Sprintf("Description contains %d links; keep it under %d.", len(links), maxLinkCount))
	}

	if len(issues) > 0 {
		notes = fmt.Sprintf("Automated review found %d issue(s). Fix them and publish again.", len(issues))
	}
	return issues, notes
}
