package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SignatureHeader carries the payload signature when a secret is configured.
const SignatureHeader = "X-Meteo-Signature"

// Sign returns "t=<unix>,v1=<hex hmac>" where the HMAC-SHA256 covers
// "<unix>.<payload>".
func Sign(payload []byte, secret string, now time.Time) string {
	ts := now.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeHMAC(ts, payload, secret))
}

// Verify checks a header produced by Sign and rejects signatures older than
// tolerance. A zero tolerance disables the age check.
func Verify(payload []byte, header, secret string, now time.Time, tolerance time.Duration) bool {
	var ts int64
	var sig string
	if _, err := fmt.Sscanf(header, "t=%d,v1=%s", &ts, &sig); err != nil {
		return false
	}
	if tolerance > 0 && now.Sub(time.Unix(ts, 0)) > tolerance {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(computeHMAC(ts, payload, secret)))
}

func computeHMAC(ts int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
