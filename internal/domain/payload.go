package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Payload is the kind-dependent content of a story, modeled as a tagged
// union: the story's Kind selects exactly one variant below, and Validate
// rejects a payload whose populated variant does not match the kind.
type Payload struct {
	Media       *MediaPayload       `json:"media,omitempty"`
	Text        *TextPayload        `json:"text,omitempty"`
	Playdate    *PlaydatePayload    `json:"playdate,omitempty"`
	Event       *EventPayload       `json:"event,omitempty"`
	Achievement *AchievementPayload `json:"achievement,omitempty"`
	Mood        *MoodPayload        `json:"mood,omitempty"`
}

// MediaPayload backs photo and video stories.
type MediaPayload struct {
	MediaURL string  `json:"media_url"`
	Caption  *string `json:"caption,omitempty"`
}

// TextPayload backs plain text stories.
type TextPayload struct {
	Body string `json:"body"`
}

// PlaydatePayload backs playdate stories.
type PlaydatePayload struct {
	Participants []uuid.UUID `json:"participants"`
	Activity     string      `json:"activity"`
	Highlights   *string     `json:"highlights,omitempty"`
}

// EventPayload backs event stories.
type EventPayload struct {
	Title       string  `json:"title"`
	Venue       *string `json:"venue,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AchievementPayload backs achievement stories.
type AchievementPayload struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MoodPayload backs mood stories.
type MoodPayload struct {
	Mood string  `json:"mood"`
	Note *string `json:"note,omitempty"`
}

func (p Payload) variantCount() int {
	n := 0
	if p.Media != nil {
		n++
	}
	if p.Text != nil {
		n++
	}
	if p.Playdate != nil {
		n++
	}
	if p.Event != nil {
		n++
	}
	if p.Achievement != nil {
		n++
	}
	if p.Mood != nil {
		n++
	}
	return n
}

// Validate checks that the payload carries exactly the variant required by
// kind, with that variant's required fields present.
func (p Payload) Validate(kind StoryKind) error {
	if !kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "unknown story kind"}
	}
	if p.variantCount() != 1 {
		return &ValidationError{Field: "payload", Reason: "exactly one payload variant must be set"}
	}

	switch kind {
	case StoryKindPhoto, StoryKindVideo:
		if p.Media == nil {
			return &ValidationError{Field: "payload.media", Reason: "required for " + string(kind) + " stories"}
		}
		if strings.TrimSpace(p.Media.MediaURL) == "" {
			return &ValidationError{Field: "payload.media.media_url", Reason: "must not be empty"}
		}
	case StoryKindText:
		if p.Text == nil {
			return &ValidationError{Field: "payload.text", Reason: "required for text stories"}
		}
		if strings.TrimSpace(p.Text.Body) == "" {
			return &ValidationError{Field: "payload.text.body", Reason: "must not be empty"}
		}
	case StoryKindPlaydate:
		if p.Playdate == nil {
			return &ValidationError{Field: "payload.playdate", Reason: "required for playdate stories"}
		}
		if len(p.Playdate.Participants) == 0 {
			return &ValidationError{Field: "payload.playdate.participants", Reason: "must not be empty"}
		}
		if strings.TrimSpace(p.Playdate.Activity) == "" {
			return &ValidationError{Field: "payload.playdate.activity", Reason: "must not be empty"}
		}
	case StoryKindEvent:
		if p.Event == nil {
			return &ValidationError{Field: "payload.event", Reason: "required for event stories"}
		}
		if strings.TrimSpace(p.Event.Title) == "" {
			return &ValidationError{Field: "payload.event.title", Reason: "must not be empty"}
		}
	case StoryKindAchievement:
		if p.Achievement == nil {
			return &ValidationError{Field: "payload.achievement", Reason: "required for achievement stories"}
		}
		if strings.TrimSpace(p.Achievement.Title) == "" {
			return &ValidationError{Field: "payload.achievement.title", Reason: "must not be empty"}
		}
		if strings.TrimSpace(p.Achievement.Description) == "" {
			return &ValidationError{Field: "payload.achievement.description", Reason: "must not be empty"}
		}
	case StoryKindMood:
		if p.Mood == nil {
			return &ValidationError{Field: "payload.mood", Reason: "required for mood stories"}
		}
		if strings.TrimSpace(p.Mood.Mood) == "" {
			return &ValidationError{Field: "payload.mood.mood", Reason: "must not be empty"}
		}
	}
	return nil
}
