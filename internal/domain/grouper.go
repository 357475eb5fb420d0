package domain

import (
	"sort"

	"github.com/google/uuid"
)

type groupKey struct {
	authorID uuid.UUID
	ownerID  uuid.UUID
}

// GroupStories groups a composed candidate list by (author, content owner)
// for sequential presentation. Stories within a group are ordered newest
// first, and groups are ordered by their newest story's creation time, most
// recently active owner first. Pure and deterministic; an empty input
// yields an empty result.
func GroupStories(stories []*Story) []*StoryGroup {
	byKey := make(map[groupKey]*StoryGroup)
	order := make([]groupKey, 0)

	for _, s := range stories {
		key := groupKey{authorID: s.AuthorID, ownerID: s.ContentOwnerID}
		g, ok := byKey[key]
		if !ok {
			g = &StoryGroup{AuthorID: s.AuthorID, ContentOwnerID: s.ContentOwnerID}
			byKey[key] = g
			order = append(order, key)
		}
		g.Stories = append(g.Stories, s)
	}

	groups := make([]*StoryGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.SliceStable(g.Stories, func(i, j int) bool {
			if !g.Stories[i].CreatedAt.Equal(g.Stories[j].CreatedAt) {
				return g.Stories[i].CreatedAt.After(g.Stories[j].CreatedAt)
			}
			return g.Stories[i].ID.String() < g.Stories[j].ID.String()
		})
		g.LastUpdated = g.Stories[0].CreatedAt
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].LastUpdated.Equal(groups[j].LastUpdated) {
			return groups[i].LastUpdated.After(groups[j].LastUpdated)
		}
		return groups[i].ContentOwnerID.String() < groups[j].ContentOwnerID.String()
	})

	return groups
}
