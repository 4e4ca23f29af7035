package types

import "time"

// Theme holds the primary/secondary topical classification for a Card
// (spec.md §3).
type Theme struct {
	Primary    string   `bson:"primary" json:"primary"`
	Secondary  []string `bson:"secondary,omitempty" json:"secondary,omitempty"`
	Confidence float64  `bson:"confidence" json:"confidence"`
}

// Sentiment holds the normalized sentiment analysis for a Card.
type Sentiment struct {
	Label      SentimentLabel `bson:"label" json:"label"`
	Score      float64        `bson:"score" json:"score"` // [-1, 1]
	Confidence Confidence     `bson:"confidence" json:"confidence"`
}

// Importance holds the normalized importance analysis for a Card.
type Importance struct {
	Score float64         `bson:"score" json:"score"` // [0, 10]
	Level ImportanceLevel `bson:"level" json:"level"`
}

// Credibility holds the normalized credibility analysis for a Card.
type Credibility struct {
	Score float64          `bson:"score" json:"score"` // [0, 10]
	Level CredibilityLevel `bson:"level" json:"level"`
}

// Entity is one named entity extracted from an article.
type Entity struct {
	Name         string     `bson:"name" json:"name"`
	Type         EntityType `bson:"type" json:"type"`
	MentionCount int        `bson:"mention_count" json:"mention_count"`
	Confidence   float64    `bson:"confidence" json:"confidence"`
}

// Timeliness holds the time-sensitivity analysis for a Card.
type Timeliness struct {
	Urgency           float64 `bson:"urgency" json:"urgency"`
	Freshness         float64 `bson:"freshness" json:"freshness"`
	IsTimeSensitive   bool    `bson:"is_time_sensitive" json:"is_time_sensitive"`
}

// GenerationMetadata records provenance and degradation info for a Card,
// surfaced to the caller per spec.md §7 ("a warning is recorded on the card
// response").
type GenerationMetadata struct {
	ModelName       string        `bson:"model_name" json:"model_name"`
	GeneratedAt     time.Time     `bson:"generated_at" json:"generated_at"`
	GenerationTime  time.Duration `bson:"generation_time_ns" json:"generation_time_ns"`
	RAGEnhanced     bool          `bson:"rag_enhanced" json:"rag_enhanced"`
	Warnings        []string      `bson:"warnings,omitempty" json:"warnings,omitempty"`
	DegradedFields  []string      `bson:"degraded_fields,omitempty" json:"degraded_fields,omitempty"`
}

// Card is the enriched, structured view of one Article (spec.md §3, §4.6).
// Cards refer to Articles by ID; they do not own them.
type Card struct {
	ID        string `bson:"_id" json:"id"`
	ArticleID string `bson:"article_id" json:"article_id"`

	Summary         string   `bson:"summary" json:"summary"`
	EnhancedSummary string   `bson:"enhanced_summary,omitempty" json:"enhanced_summary,omitempty"`
	KeyPoints       []string `bson:"key_points,omitempty" json:"key_points,omitempty"`
	Keywords        []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
	Hashtags        []string `bson:"hashtags,omitempty" json:"hashtags,omitempty"`

	Theme       Theme       `bson:"theme" json:"theme"`
	Sentiment   Sentiment   `bson:"sentiment" json:"sentiment"`
	Importance  Importance  `bson:"importance" json:"importance"`
	Credibility Credibility `bson:"credibility" json:"credibility"`
	Entities    []Entity    `bson:"entities,omitempty" json:"entities,omitempty"`
	Timeliness  Timeliness  `bson:"timeliness" json:"timeliness"`

	Audience    string          `bson:"audience,omitempty" json:"audience,omitempty"`
	ReadingTime float64         `bson:"reading_time_minutes" json:"reading_time_minutes"`
	Difficulty  DifficultyLevel `bson:"difficulty" json:"difficulty"`

	RelatedArticleIDs []string           `bson:"related_article_ids,omitempty" json:"related_article_ids,omitempty"`
	SimilarityScores  map[string]float64 `bson:"similarity_scores,omitempty" json:"similarity_scores,omitempty"`
	RAGContext        string             `bson:"rag_context,omitempty" json:"rag_context,omitempty"`

	Generation GenerationMetadata `bson:"generation" json:"generation"`
}

// ClampScores clamps every bounded numeric field into its documented range
// (spec.md §3, §8 invariant on card scores).
func (c *Card) ClampScores() {
	c.Sentiment.Score = clampFloat(c.Sentiment.Score, -1, 1)
	c.Importance.Score = clampFloat(c.Importance.Score, 0, 10)
	c.Credibility.Score = clampFloat(c.Credibility.Score, 0, 10)
	c.Theme.Confidence = clampFloat(c.Theme.Confidence, 0, 1)
	c.Timeliness.Urgency = clampFloat(c.Timeliness.Urgency, 0, 1)
	c.Timeliness.Freshness = clampFloat(c.Timeliness.Freshness, 0, 1)
}
