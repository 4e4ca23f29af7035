// Package enrichment implements the Enrichment/Card Engine (spec.md §4.6).
//
// This file is the system's schema-of-record for card enums (spec.md §4.6
// "Normalization (critical invariant)", §9 "Free-form model output").
// Every card field the language model can emit in free form passes through
// one of these mapping functions before it reaches a types.Card. Centralizing
// the table here, rather than scattering synonym checks across each analysis,
// is the whole point: a drifted model output degrades to a safe default
// instead of an invalid enum value ever reaching a caller.
package enrichment

import (
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

var importanceSynonyms = map[string]types.ImportanceLevel{
	"critical": types.ImportanceCritical, "极高": types.ImportanceCritical,
	"极其重要": types.ImportanceCritical, "非常重要": types.ImportanceCritical,
	"high": types.ImportanceHigh, "重要": types.ImportanceHigh, "较高": types.ImportanceHigh,
	"medium": types.ImportanceMedium, "中等": types.ImportanceMedium, "一般": types.ImportanceMedium,
	"low": types.ImportanceLow, "较低": types.ImportanceLow, "次要": types.ImportanceLow,
	"minimal": types.ImportanceMinimal, "轻微": types.ImportanceMinimal, "不重要": types.ImportanceMinimal,
}

// NormalizeImportanceLevel maps a free-form (possibly Chinese) importance
// label to the closed vocabulary, defaulting to medium (spec.md §4.6).
func NormalizeImportanceLevel(raw string) types.ImportanceLevel {
	if v, ok := importanceSynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.ImportanceMedium
}

var credibilitySynonyms = map[string]types.CredibilityLevel{
	"verified": types.CredibilityVerified, "已核实": types.CredibilityVerified, "权威": types.CredibilityVerified,
	"reliable": types.CredibilityReliable, "可靠": types.CredibilityReliable, "较可信": types.CredibilityReliable,
	"moderate": types.CredibilityModerate, "中等": types.CredibilityModerate, "一般可信": types.CredibilityModerate,
	"中等偏低可信度": types.CredibilityModerate, // spec.md §9 Open Question: kept as moderate, not questionable
	"questionable": types.CredibilityQuestionable, "存疑": types.CredibilityQuestionable, "可信度存疑": types.CredibilityQuestionable,
	"unverified": types.CredibilityUnverified, "未核实": types.CredibilityUnverified, "不可信": types.CredibilityUnverified,
}

// NormalizeCredibilityLevel maps a free-form credibility label to the closed
// vocabulary, defaulting to moderate (spec.md §4.6).
func NormalizeCredibilityLevel(raw string) types.CredibilityLevel {
	if v, ok := credibilitySynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.CredibilityModerate
}

var sentimentSynonyms = map[string]types.SentimentLabel{
	"positive": types.SentimentPositive, "积极": types.SentimentPositive, "正面": types.SentimentPositive,
	"negative": types.SentimentNegative, "消极": types.SentimentNegative, "负面": types.SentimentNegative,
	"neutral": types.SentimentNeutral, "中性": types.SentimentNeutral,
	"mixed": types.SentimentMixed, "复杂": types.SentimentMixed, "褒贬不一": types.SentimentMixed,
}

// NormalizeSentimentLabel maps a free-form sentiment label to the closed
// vocabulary, defaulting to neutral (spec.md §4.6).
func NormalizeSentimentLabel(raw string) types.SentimentLabel {
	if v, ok := sentimentSynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.SentimentNeutral
}

var confidenceSynonyms = map[string]types.Confidence{
	"low": types.ConfidenceLow, "低": types.ConfidenceLow,
	"medium": types.ConfidenceMedium, "中": types.ConfidenceMedium, "中等": types.ConfidenceMedium,
	"high": types.ConfidenceHigh, "高": types.ConfidenceHigh,
}

// NormalizeConfidence maps a free-form confidence label to {low, medium,
// high}, defaulting to medium (spec.md §4.6).
func NormalizeConfidence(raw string) types.Confidence {
	if v, ok := confidenceSynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.ConfidenceMedium
}

var difficultySynonyms = map[string]types.DifficultyLevel{
	"easy": types.DifficultyEasy, "简单": types.DifficultyEasy, "容易": types.DifficultyEasy,
	"medium": types.DifficultyMedium, "中等": types.DifficultyMedium, "适中": types.DifficultyMedium,
	"hard": types.DifficultyHard, "困难": types.DifficultyHard, "复杂": types.DifficultyHard,
}

// NormalizeDifficultyLevel maps a free-form reading-difficulty label to the
// closed vocabulary, defaulting to medium (spec.md §4.6).
func NormalizeDifficultyLevel(raw string) types.DifficultyLevel {
	if v, ok := difficultySynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.DifficultyMedium
}

var entityTypeSynonyms = map[string]types.EntityType{
	"person": types.EntityPerson, "人物": types.EntityPerson, "人": types.EntityPerson,
	"organization": types.EntityOrganization, "组织": types.EntityOrganization, "机构": types.EntityOrganization, "公司": types.EntityOrganization,
	"location": types.EntityLocation, "地点": types.EntityLocation, "地区": types.EntityLocation,
}

// NormalizeEntityType maps a free-form entity-type label to the closed
// vocabulary, defaulting to other (spec.md §3).
func NormalizeEntityType(raw string) types.EntityType {
	if v, ok := entityTypeSynonyms[normalizeKey(raw)]; ok {
		return v
	}
	return types.EntityOther
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// StringifyMapList converts a list serialized by the model as a list of
// single-key maps (e.g. [{"politics": "domestic policy shift"}]) into
// "key: value" strings, preserving both key and value (spec.md §4.6).
func StringifyMapList(items []interface{}) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			for k, val := range v {
				out = append(out, k+": "+toString(val))
			}
		}
	}
	return out
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// EntitiesFromMap converts an entity map response (name -> count, or name ->
// {type, count}) into the list-of-records form the Card type expects
// (spec.md §4.6 "Entity maps are converted to the list-of-records form").
func EntitiesFromMap(raw map[string]interface{}) []types.Entity {
	out := make([]types.Entity, 0, len(raw))
	for name, v := range raw {
		entity := types.Entity{Name: name, Type: types.EntityOther, Confidence: 0.5}
		switch val := v.(type) {
		case float64:
			entity.MentionCount = int(val)
		case map[string]interface{}:
			if t, ok := val["type"].(string); ok {
				entity.Type = NormalizeEntityType(t)
			}
			if c, ok := val["mention_count"].(float64); ok {
				entity.MentionCount = int(c)
			}
			if conf, ok := val["confidence"].(float64); ok {
				entity.Confidence = conf
			}
		}
		if entity.MentionCount == 0 {
			entity.MentionCount = 1
		}
		out = append(out, entity)
	}
	return out
}
