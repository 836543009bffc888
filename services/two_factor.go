package services

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TwoFactor issues and checks TOTP secrets (RFC 6238, 30s period, 6 digits).
type TwoFactor struct {
	Issuer string
	now    func() time.Time
}

func NewTwoFactor(issuer string) *TwoFactor {
	return &TwoFactor{Issuer: issuer, now: time.Now}
}

const qrCodeSize = 200

type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
	QRCode string `json:"qrCode"` // data:image/png;base64,...
}

func (tf *TwoFactor) Generate(accountName string) (TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tf.Issuer,
		AccountName: accountName,
		Algorithm:   otp.AlgorithmSHA1,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return TwoFactorSetup{}, errors.Wrap(err, "generating totp secret")
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return TwoFactorSetup{}, errors.Wrap(err, "rendering qr code")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return TwoFactorSetup{}, errors.Wrap(err, "encoding qr code")
	}

	return TwoFactorSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Validate accepts the current code and one period of clock skew either way.
func (tf *TwoFactor) Validate(code, secret string) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" || secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, tf.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
