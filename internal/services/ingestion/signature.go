package ingestion

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

const SignatureHeader = "X-WC-Webhook-Signature"

// SignatureVerifier проверяет base64(HMAC-SHA256(body, secret)) из заголовка.
//
// Без секрета или без заголовка проверка пропускается (тестовые вызовы WooCommerce),
// если не включён Require: тогда оба обязательны.
type SignatureVerifier struct {
	Secret  string
	Require bool
}

func (v SignatureVerifier) Verify(body []byte, headers http.Header) error {
	secret := strings.TrimSpace(v.Secret)
	signature := strings.TrimSpace(headers.Get(SignatureHeader))

	if secret == "" || signature == "" {
		if v.Require {
			if secret == "" {
				return errors.Wrap(models.ErrAuthentication, "webhook secret is not configured")
			}
			return errors.Wrapf(models.ErrAuthentication, "%s header is required", SignatureHeader)
		}
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errors.Wrap(models.ErrAuthentication, "decode base64 signature")
	}
	if subtle.ConstantTimeCompare(decoded, Sign(body, secret)) != 1 {
		return errors.Wrap(models.ErrAuthentication, "signature verification failed")
	}
	return nil
}

func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

func SignBase64(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(Sign(body, secret))
}
