package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/wonny/auditready/internal/contracts"
)

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg Config) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint identifies the scored content of a result.
// ScoredAt and Plan are excluded so two runs over the same records share a fingerprint.
func Fingerprint(r *contracts.OutletScoreResult) (string, error) {
	b, err := json.Marshal(struct {
		OutletID   int64                     `json:"outlet_id"`
		Overall    float64                   `json:"overall"`
		Status     contracts.ReadinessStatus `json:"status"`
		Components contracts.Components      `json:"components"`
	}{r.OutletID, r.OverallScore, r.Status, r.Components})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16]), nil
}
