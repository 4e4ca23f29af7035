package enrichment

import "github.com/sjq0098/news-mosaic-go/internal/types"

// Deterministic, low-confidence defaults returned when a sub-analysis's LM
// call or JSON parse fails (spec.md §4.6 "Each analysis has a deterministic
// fallback"). The overall card generation always succeeds because every
// field has one of these.

func defaultSummary(article types.Article) summaryResult {
	runes := []rune(article.Title)
	return summaryResult{
		Summary:         article.Title,
		EnhancedSummary: string(runes),
		KeyPoints:       []string{article.Title},
		Keywords:        article.Keywords,
		Hashtags:        nil,
		Audience:        "general",
		ReadingTime:     estimateReadingTime(article.Body),
		Difficulty:      string(types.DifficultyMedium),
	}
}

func defaultSentiment() types.Sentiment {
	return types.Sentiment{Label: types.SentimentNeutral, Score: 0, Confidence: types.ConfidenceLow}
}

func defaultTheme() types.Theme {
	return types.Theme{Primary: "general", Confidence: 0.3}
}

func defaultImportance() types.Importance {
	return types.Importance{Score: 5, Level: types.ImportanceMedium}
}

func defaultCredibility() types.Credibility {
	return types.Credibility{Score: 5, Level: types.CredibilityModerate}
}

func defaultEntities() []types.Entity {
	return nil
}

func defaultTimeliness() types.Timeliness {
	return types.Timeliness{Urgency: 0.3, Freshness: 0.5, IsTimeSensitive: false}
}

// estimateReadingTime approximates reading time in minutes assuming 200
// words/minute, matching the default the card's fallback summary uses when
// the LM call that would normally estimate it fails.
func estimateReadingTime(body string) float64 {
	words := 0
	inWord := false
	for _, r := range body {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	if words == 0 {
		return 1
	}
	minutes := float64(words) / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
