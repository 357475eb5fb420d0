package domain

import (
	"testing"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestPayloadValidate(t *testing.T) {
	media := &MediaPayload{MediaURL: "https://cdn.example.com/a.jpg", Caption: strPtr("beach day")}

	cases := []struct {
		name    string
		kind    StoryKind
		payload Payload
		wantErr bool
	}{
		{"photo ok", StoryKindPhoto, Payload{Media: media}, false},
		{"video ok", StoryKindVideo, Payload{Media: &MediaPayload{MediaURL: "https://cdn.example.com/a.mp4"}}, false},
		{"photo missing media", StoryKindPhoto, Payload{}, true},
		{"photo empty url", StoryKindPhoto, Payload{Media: &MediaPayload{MediaURL: "  "}}, true},
		{"photo wrong variant", StoryKindPhoto, Payload{Text: &TextPayload{Body: "hi"}}, true},
		{"text ok", StoryKindText, Payload{Text: &TextPayload{Body: "first walk today"}}, false},
		{"text empty body", StoryKindText, Payload{Text: &TextPayload{Body: ""}}, true},
		{"playdate ok", StoryKindPlaydate, Payload{Playdate: &PlaydatePayload{
			Participants: []uuid.UUID{uuid.New(), uuid.New()},
			Activity:     "fetch",
			Highlights:   strPtr("caught every ball"),
		}}, false},
		{"playdate no participants", StoryKindPlaydate, Payload{Playdate: &PlaydatePayload{Activity: "fetch"}}, true},
		{"playdate no activity", StoryKindPlaydate, Payload{Playdate: &PlaydatePayload{Participants: []uuid.UUID{uuid.New()}}}, true},
		{"event ok", StoryKindEvent, Payload{Event: &EventPayload{Title: "Dog park meetup"}}, false},
		{"event no title", StoryKindEvent, Payload{Event: &EventPayload{}}, true},
		{"achievement ok", StoryKindAchievement, Payload{Achievement: &AchievementPayload{
			Category:    "training",
			Title:       "Sit champion",
			Description: "Held a sit for a full minute",
		}}, false},
		{"achievement missing description", StoryKindAchievement, Payload{Achievement: &AchievementPayload{Title: "Sit champion"}}, true},
		{"mood ok", StoryKindMood, Payload{Mood: &MoodPayload{Mood: "zoomies"}}, false},
		{"mood empty", StoryKindMood, Payload{Mood: &MoodPayload{}}, true},
		{"two variants", StoryKindPhoto, Payload{Media: media, Text: &TextPayload{Body: "x"}}, true},
		{"unknown kind", StoryKind("livestream"), Payload{Media: media}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate(tc.kind)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && err != nil && !IsValidation(err) {
				t.Fatalf("expected validation error got %T", err)
			}
		})
	}
}
