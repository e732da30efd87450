package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		if err != nil {
			return "", err
		}
		code[i] = idCharset[num.Int64()]
	}
	return string(code), nil
}

// newSessionID builds an id of the form "g<unix-ms>-<code>". The timestamp
// prefix lets the staleness sweep derive a creation time from the id alone,
// even when the blob never recorded a heartbeat.
func newSessionID(now time.Time) (string, error) {
	code, err := generateCode(6)
	if err != nil {
		return "", fmt.Errorf("generate session code: %w", err)
	}
	return fmt.Sprintf("g%d-%s", now.UnixMilli(), code), nil
}

// CreationTimeFromID recovers the creation timestamp embedded in a session
// id. ok is false for ids that do not carry one.
func CreationTimeFromID(id string) (time.Time, bool) {
	if !strings.HasPrefix(id, "g") {
		return time.Time{}, false
	}
	head, _, found := strings.Cut(id[1:], "-")
	if !found {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(head, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
