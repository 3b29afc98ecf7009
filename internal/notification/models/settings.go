package models

import (
	"fmt"
	"slices"
	"time"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
)

const (
	MinThreshold = 0
	MaxThreshold = 365
)

// DefaultThresholds are written the first time an account's settings are read.
var DefaultThresholds = []int{30}

// Settings holds the days-before-expiration thresholds of one account.
type Settings struct {
	AccountID id.AccountID `json:"account_id"`
	Days      []int        `json:"days_before_expiration"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewSettings(accountID id.AccountID, days []int, now time.Time) *Settings {
	return &Settings{
		AccountID: accountID,
		Days:      slices.Clone(days),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeThresholds validates and returns days deduplicated in ascending order.
func NormalizeThresholds(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one threshold is required")
	}
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < MinThreshold || d > MaxThreshold {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("thresholds must be between %d and %d days", MinThreshold, MaxThreshold))
		}
		out = append(out, d)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
