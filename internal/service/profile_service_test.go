package service

import (
	"reflect"
	"testing"

	"depanku-backend/internal/models"
)

func TestCompletionEmptyProfile(t *testing.T) {
	svc := NewProfileService(nil, nil)

	completion := svc.Completion(&models.User{})
	if completion.Percentage != 0 {
		t.Errorf("percentage = %d, want 0", completion.Percentage)
	}
	if len(completion.MissingFields) != 5 {
		t.Errorf("missing = %v, want all five fields", completion.MissingFields)
	}
}

func TestCompletionTwoFieldsFilled(t *testing.T) {
	svc := NewProfileService(nil, nil)

	user := &models.User{
		DisplayName: "Ayu",
		PhotoURL:    "/uploads/avatars/1.png",
	}

	completion := svc.Completion(user)
	if completion.Percentage != 40 {
		t.Errorf("percentage = %d, want 40", completion.Percentage)
	}
	want := []string{"Bio", "Location", "Website"}
	if !reflect.DeepEqual(completion.MissingFields, want) {
		t.Errorf("missing = %v, want %v", completion.MissingFields, want)
	}
}

func TestCompletionWhitespaceDoesNotCount(t *testing.T) {
	svc := NewProfileService(nil, nil)

	user := &models.User{DisplayName: "   "}
	completion := svc.Completion(user)
	if completion.Percentage != 0 {
		t.Errorf("percentage = %d, want 0 for whitespace-only field", completion.Percentage)
	}
}

func TestCompletionMessageBands(t *testing.T) {
	svc := NewProfileService(nil, nil)

	full := &models.User{
		DisplayName: "Ayu",
		PhotoURL:    "/uploads/avatars/1.png",
		Bio:         "Student",
		Location:    "Bandung",
		Website:     "https://example.com",
	}

	completion := svc.Completion(full)
	if completion.Percentage != 100 {
		t.Fatalf("percentage = %d, want 100", completion.Percentage)
	}
	if completion.Message != "Your profile is complete." {
		t.Errorf("message = %q", completion.Message)
	}
	if len(completion.MissingFields) != 0 {
		t.Errorf("missing = %v, want none", completion.MissingFields)
	}

	// Each count of filled fields lands in a distinct message band.
	seen := map[string]int{}
	users := []*models.User{
		{},
		{DisplayName: "a"},
		{DisplayName: "a", PhotoURL: "b"},
		{DisplayName: "a", PhotoURL: "b", Bio: "c"},
		{DisplayName: "a", PhotoURL: "b", Bio: "c", Location: "d"},
		full,
	}
	for i, u := range users {
		c := svc.Completion(u)
		if c.Percentage != i*20 {
			t.Errorf("user %d: percentage = %d, want %d", i, c.Percentage, i*20)
		}
		seen[c.Message]++
	}
	// 0 and 20 percent share the lowest band; the rest are distinct.
	if len(seen) != 5 {
		t.Errorf("distinct messages = %d, want 5", len(seen))
	}
}
