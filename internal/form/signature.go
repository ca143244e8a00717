package form

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkordes/detour/internal/domain"
)

const typeformSignaturePrefix = "sha256="

// Sign returns base64(HMAC-SHA256(secret, body)), the Tally-Signature value.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyTally checks a Tally-Signature header. An empty secret disables the check.
func VerifyTally(body []byte, signature, secret string) error {
	if secret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("%w: missing webhook signature", domain.ErrInvalidSignature)
	}
	if !hmac.Equal([]byte(Sign(body, secret)), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// VerifyTypeform checks a Typeform-Signature header ("sha256=<base64>").
// An empty secret disables the check.
func VerifyTypeform(body []byte, signature, secret string) error {
	if secret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("%w: missing webhook signature", domain.ErrInvalidSignature)
	}
	sig, ok := strings.CutPrefix(signature, typeformSignaturePrefix)
	if !ok {
		return domain.ErrInvalidSignature
	}
	if !hmac.Equal([]byte(Sign(body, secret)), []byte(sig)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
