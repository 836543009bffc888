package services

import (
	"time"

	"notemate/utils"
)

const ResetTokenTTL = 10 * time.Minute

// ResetToken is a freshly minted password reset token. Raw goes into the
// mailed link; only Hash is stored.
type ResetToken struct {
	Raw     string
	Hash    string
	Expires time.Time
}

func NewResetToken(now time.Time) (ResetToken, error) {
	raw, err := utils.RandomHex(utils.ResetTokenBytes)
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{Raw: raw, Hash: utils.HashString(raw), Expires: now.Add(ResetTokenTTL)}, nil
}

func ResetLink(frontendURL, raw string) string {
	return frontendURL + "/reset-password/" + raw
}
