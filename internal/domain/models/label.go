package models

import "time"

// Tier is a normalized sensitivity classification. The set is fixed; raw
// tenant label names are mapped onto it by deterministic keyword rules.
// Tier 表示归一化后的敏感度分级，集合固定不变。
type Tier string

const (
	TierPublic       Tier = "Public"
	TierInternal     Tier = "Internal"
	TierConfidential Tier = "Confidential"
	TierRestricted   Tier = "Restricted"
	TierUnclassified Tier = "Unclassified"
)

// Valid reports whether t is one of the fixed tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierPublic, TierInternal, TierConfidential, TierRestricted, TierUnclassified:
		return true
	}
	return false
}

// LabelMapping is one append-only entry of a tenant's label normalization
// map: raw label name to normalized tier. Created lazily on first encounter;
// once recorded the tier never changes, even if the rule set does, so
// repeated ingestion stays deterministic and historically comparable.
type LabelMapping struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	TenantID  string    `json:"tenant_id" gorm:"size:36;uniqueIndex:idx_tenant_raw_name"`
	RawName   string    `json:"raw_name" gorm:"size:256;uniqueIndex:idx_tenant_raw_name"`
	Tier      Tier      `json:"tier" gorm:"size:16"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by GORM.
func (LabelMapping) TableName() string {
	return "label_normalization_map"
}
