package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateInviteToken returns a base36 timestamp and 8 random characters,
// upper-cased, e.g. LTF3K9Q0-7XK2M9AB.
func GenerateInviteToken(now time.Time) (string, error) {
	random, err := gonanoid.Generate(tokenAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	stamp := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper(stamp + "-" + random), nil
}
