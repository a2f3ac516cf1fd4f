package apiclient

import (
	"strings"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
)

const legacyBonusStatusActive = "active"

// tokenBatchWire tolerates the two key spellings older API deployments used
// for the generated token list.
type tokenBatchWire struct {
	Tokens       []string `json:"tokens"`
	LegacyTokens []string `json:"Tokens"`
}

func (wireBatch tokenBatchWire) normalize() model.TokenBatch {
	if len(wireBatch.Tokens) > 0 {
		return model.TokenBatch{Tokens: wireBatch.Tokens}
	}
	return model.TokenBatch{Tokens: wireBatch.LegacyTokens}
}

// bonusWireRecord accepts both the canonical bonus shape and the legacy one
// still emitted by older deployments. Canonical fields win when present.
type bonusWireRecord struct {
	RewardType     string `json:"reward_type"`
	RequiredPoints int64  `json:"required_points"`
	QRToken        string `json:"qr_token"`
	IsUsed         bool   `json:"is_used"`

	LegacyID     string `json:"id"`
	LegacyTitle  string `json:"title"`
	LegacyStatus string `json:"status"`
}

func (wireRecord bonusWireRecord) isCanonical() bool {
	return strings.TrimSpace(wireRecord.RewardType) != ""
}

func (wireRecord bonusWireRecord) normalize() model.Bonus {
	if wireRecord.isCanonical() {
		return model.Bonus{
			RewardType:     wireRecord.RewardType,
			RequiredPoints: wireRecord.RequiredPoints,
			QRToken:        wireRecord.QRToken,
			Used:           wireRecord.IsUsed,
		}
	}
	return model.Bonus{
		RewardType: wireRecord.LegacyTitle,
		QRToken:    wireRecord.LegacyID,
		Used:       !strings.EqualFold(strings.TrimSpace(wireRecord.LegacyStatus), legacyBonusStatusActive),
	}
}

func normalizeBonuses(wireRecords []bonusWireRecord) []model.Bonus {
	bonuses := make([]model.Bonus, 0, len(wireRecords))
	for _, wireRecord := range wireRecords {
		bonuses = append(bonuses, wireRecord.normalize())
	}
	return bonuses
}
