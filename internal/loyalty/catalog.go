package loyalty

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

// Reason identifies a catalog reward.
type Reason string

const (
	ReasonSignupBonus  Reason = "signup_bonus"
	ReasonReferral     Reason = "referral"
	ReasonSurveyReward Reason = "survey_reward"
)

type reward struct {
	points      int64
	description string
}

var catalog = map[Reason]reward{
	ReasonSignupBonus:  {points: 50, description: "Signup bonus"},
	ReasonReferral:     {points: 100, description: "Referred a friend"},
	ReasonSurveyReward: {points: 35, description: "Survey reward"},
}

// ParseReason resolves a catalog reason, case-insensitively.
func ParseReason(s string) (Reason, error) {
	r := Reason(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[r]; !ok {
		return "", fmt.Errorf("%w: unknown reward %q", ledger.ErrInvalidInput, s)
	}
	return r, nil
}

// Points returns the catalog value of a reason.
func (r Reason) Points() decimal.Decimal {
	return decimal.NewFromInt(catalog[r].points)
}
