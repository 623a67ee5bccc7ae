package referencedata

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"membership/internal/registration/models"
)

//go:embed seed.json
var seedJSON []byte

type seedEntry struct {
	models.ReferenceEntry
	Parent string `json:"parent,omitempty"`
}

// Static serves a fixed dataset from memory. It backs local runs when no
// reference service is configured.
type Static struct {
	lists map[models.Level]map[string][]models.ReferenceEntry
}

// NewStatic loads the embedded seed dataset.
func NewStatic() (*Static, error) {
	return ParseStatic(seedJSON)
}

// ParseStatic builds a Static from a JSON document keyed by level.
func ParseStatic(doc []byte) (*Static, error) {
	var raw map[models.Level][]seedEntry
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse reference seed: %w", err)
	}
	s := &Static{lists: make(map[models.Level]map[string][]models.ReferenceEntry)}
	for level, entries := range raw {
		if !level.Valid() {
			return nil, fmt.Errorf("parse reference seed: unknown level %q", level)
		}
		byParent := make(map[string][]models.ReferenceEntry)
		for _, e := range entries {
			byParent[e.Parent] = append(byParent[e.Parent], e.ReferenceEntry)
		}
		s.lists[level] = byParent
	}
	return s, nil
}

func (s *Static) List(_ context.Context, level models.Level, parentCode string) ([]models.ReferenceEntry, error) {
	if needsParent(level) && parentCode == "" {
		return []models.ReferenceEntry{}, nil
	}
	list := s.lists[level][parentCode]
	out := make([]models.ReferenceEntry, len(list))
	copy(out, list)
	return out, nil
}
