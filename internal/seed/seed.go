package seed

import "depanku-backend/internal/models"

// TagPreset groups the curated tags shown in the listing editor.
type TagPreset struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// OpportunityTemplate is a pre-filled starting point for a new listing.
type OpportunityTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func TagPresets() []TagPreset {
	return []TagPreset{
		{
			Category: "Field",
			Tags: []string{
				"science", "technology", "engineering", "mathematics",
				"social-science", "arts", "business", "medicine", "law",
			},
		},
		{
			Category: "Format",
			Tags: []string{
				"online", "in-person", "hybrid", "summer-program",
				"workshop", "mentorship", "internship",
			},
		},
		{
			Category: "Funding",
			Tags: []string{
				"fully-funded", "partially-funded", "self-funded",
				"stipend", "scholarship-available",
			},
		},
		{
			Category: "Level",
			Tags: []string{
				"high-school", "undergraduate", "gap-year", "beginner-friendly",
			},
		},
	}
}

func OpportunityTemplates() []OpportunityTemplate {
	return []OpportunityTemplate{
		{
			ID:   "research-program",
			Name: "Research Program",
			Type: models.OpportunityTypeResearch,
			Description: "Describe the research area, the mentor or lab the " +
				"student will join, the weekly time commitment, and what the " +
				"final output looks like.",
			Tags: []string{"research", "mentorship"},
		},
		{
			ID:   "competition",
			Name: "Competition",
			Type: models.OpportunityTypeCompetition,
			Description: "Describe the challenge, who can enter, how teams are " +
				"formed, the judging criteria, and the prizes.",
			Tags: []string{"competition"},
		},
		{
			ID:   "youth-program",
			Name: "Youth Program",
			Type: models.OpportunityTypeYouthProgram,
			Description: "Describe the program schedule, eligibility, costs or " +
				"funding, and what participants take away.",
			Tags: []string{"summer-program", "high-school"},
		},
		{
			ID:   "community",
			Name: "Community",
			Type: models.OpportunityTypeCommunity,
			Description: "Describe the community, how often it meets, how to " +
				"join, and what members typically work on together.",
			Tags: []string{"community", "online"},
		},
	}
}
