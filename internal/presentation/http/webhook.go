package httppresentation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

// maxWebhookBody caps inbound webhook payloads; real provider notifications
// are well under a kilobyte.
const maxWebhookBody = 64 << 10

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
}

// verifySignature checks the hex HMAC-SHA256 of the raw body against the
// provided header. With no secret configured the check is skipped, which is
// the sandbox posture where the provider signs nothing.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
