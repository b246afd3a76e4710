package services

import (
	"wavesight/internal/models"
	"wavesight/internal/pkg"
)

var tierMultipliers = map[string]float64{
	models.TierRestricted: 0.5,
	models.TierLearning:   1.0,
	models.TierVerified:   1.5,
	models.TierElite:      2.0,
	models.TierMaster:     3.0,
}

// TierMultiplier returns 1.0 for unknown tiers.
func TierMultiplier(tier string) float64 {
	if m, ok := tierMultipliers[tier]; ok {
		return m
	}
	return 1.0
}

func StreakMultiplier(streakDays int) float64 {
	switch {
	case streakDays >= 30:
		return 2.5
	case streakDays >= 14:
		return 2.0
	case streakDays >= 7:
		return 1.5
	case streakDays >= 2:
		return 1.2
	}
	return 1.0
}

// CalculateReward is base × tier × streak rounded to cents.
func CalculateReward(baseAmount float64, tier string, streakDays int) float64 {
	return pkg.Round2(baseAmount * TierMultiplier(tier) * StreakMultiplier(streakDays))
}
