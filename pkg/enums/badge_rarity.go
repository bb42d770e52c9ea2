package enums

import "fmt"

// BadgeRarity maps to the badge_rarity_enum enum in Postgres.
type BadgeRarity string

const (
	BadgeRarityCommon    BadgeRarity = "common"
	BadgeRarityUncommon  BadgeRarity = "uncommon"
	BadgeRarityRare      BadgeRarity = "rare"
	BadgeRarityEpic      BadgeRarity = "epic"
	BadgeRarityLegendary BadgeRarity = "legendary"
)

var validBadgeRarities = []BadgeRarity{
	BadgeRarityCommon,
	BadgeRarityUncommon,
	BadgeRarityRare,
	BadgeRarityEpic,
	BadgeRarityLegendary,
}

// IsValid reports whether the value matches the canonical rarity enum.
func (r BadgeRarity) IsValid() bool {
	for _, candidate := range validBadgeRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseBadgeRarity converts raw input into BadgeRarity.
func ParseBadgeRarity(value string) (BadgeRarity, error) {
	for _, candidate := range validBadgeRarities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge rarity %q", value)
}
