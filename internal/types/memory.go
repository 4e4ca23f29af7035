package types

import "time"

// MemoryItem is a typed, embedding-bearing note about a user, retrievable by
// similarity to a query (spec.md §3, glossary).
type MemoryItem struct {
	ID         string     `bson:"_id" json:"id"`
	UserID     string     `bson:"user_id" json:"user_id"`
	Type       MemoryType `bson:"type" json:"type"`
	Body       string     `bson:"body" json:"body"`
	Importance float64    `bson:"importance" json:"importance"` // [0, 1]
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Embedding  []float32  `bson:"embedding,omitempty" json:"-"`
	IsActive   bool       `bson:"is_active" json:"is_active"`
}

// Expired reports whether the memory item has passed its expiration at t.
func (m *MemoryItem) Expired(t time.Time) bool {
	return m.ExpiresAt != nil && t.After(*m.ExpiresAt)
}

// ResponseStyle captures a user's preferred interaction shape.
type ResponseStyle struct {
	CommunicationStyle string `bson:"communication_style,omitempty" json:"communication_style,omitempty"`
	ResponseFormat     string `bson:"response_format,omitempty" json:"response_format,omitempty"`
	AnalysisDepth      string `bson:"analysis_depth,omitempty" json:"analysis_depth,omitempty"`
}

// UserMemoryProfile is the per-user ordered collection of Memory Items plus
// aggregate preference state (spec.md §3).
type UserMemoryProfile struct {
	UserID             string        `bson:"_id" json:"user_id"`
	Memories           []*MemoryItem `bson:"memories" json:"memories"`
	PreferredCategories []string     `bson:"preferred_categories,omitempty" json:"preferred_categories,omitempty"`
	DislikedCategories  []string     `bson:"disliked_categories,omitempty" json:"disliked_categories,omitempty"`
	ResponseStyle       ResponseStyle `bson:"response_style" json:"response_style"`
	TotalMemories       int          `bson:"total_memories" json:"total_memories"`
}

// Recompute enforces the profile invariant total_memories = |active
// memories| (spec.md §8), called after every mutation.
func (p *UserMemoryProfile) Recompute() {
	count := 0
	for _, m := range p.Memories {
		if m.IsActive {
			count++
		}
	}
	p.TotalMemories = count
}

// ApplyRetention deactivates memories older than retentionDays or beyond
// hardCap (keeping the hardCap most recent active memories), per spec.md §3
// invariant "memory count is bounded by a retention policy".
func (p *UserMemoryProfile) ApplyRetention(now time.Time, retentionDays int, hardCap int) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	active := make([]*MemoryItem, 0, len(p.Memories))
	for _, m := range p.Memories {
		if !m.IsActive {
			continue
		}
		if m.Expired(now) || (retentionDays > 0 && m.CreatedAt.Before(cutoff)) {
			m.IsActive = false
			continue
		}
		active = append(active, m)
	}
	if hardCap > 0 && len(active) > hardCap {
		// Deactivate the oldest overflow, relying on Memories being ordered
		// oldest-to-newest (AddMemory appends).
		overflow := len(active) - hardCap
		deactivated := 0
		for _, m := range p.Memories {
			if deactivated >= overflow {
				break
			}
			if m.IsActive {
				m.IsActive = false
				deactivated++
			}
		}
	}
	p.Recompute()
}

// CategoryWeights is the per-user category→weight counter backing the
// user_preferences collection (SPEC_FULL.md supplemented feature 2).
type CategoryWeights struct {
	UserID  string             `bson:"_id" json:"user_id"`
	Weights map[string]float64 `bson:"weights" json:"weights"`
}

// Bump increments the weight for category by delta, creating the entry if
// absent.
func (c *CategoryWeights) Bump(category string, delta float64) {
	if category == "" {
		return
	}
	if c.Weights == nil {
		c.Weights = make(map[string]float64)
	}
	c.Weights[category] += delta
}
