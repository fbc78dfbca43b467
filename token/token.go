// Package token generates and validates the opaque session identifiers that the target
// service's endpoint accepts.
package token

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Length is the exact token length the endpoint contract requires.
const Length = 32

const (
	alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	hexAlphabet = "0123456789ABCDEF"

	// TimeoutPrefix marks a token that the backend stub treats as a request for the
	// slow path, so tests can provoke backend timeouts deterministically.
	TimeoutPrefix = "TIMEOUT"
)

var validToken = regexp.MustCompile(`^[A-Z0-9]{32}$`)

var rng = struct {
	sync.Mutex
	*rand.Rand
}{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}

func randomString(chars string, length int) string {
	var b strings.Builder
	b.Grow(length)
	rng.Lock()
	for i := 0; i < length; i++ {
		b.WriteByte(chars[rng.Intn(len(chars))])
	}
	rng.Unlock()
	return b.String()
}

// Generate returns a random token of the standard length, drawn from [A-Z0-9].
func Generate() string {
	return GenerateLen(Length)
}

// GenerateLen returns a random [A-Z0-9] string of the given length. Lengths other than
// Length produce tokens the endpoint must reject; tests use this to probe validation.
func GenerateLen(length int) string {
	return randomString(alphabet, length)
}

// GenerateHex returns a random token of the standard length drawn from the hex subset
// [0-9A-F], which is still a valid token shape.
func GenerateHex() string {
	return GenerateHexLen(Length)
}

// GenerateHexLen returns a random [0-9A-F] string of the given length.
func GenerateHexLen(length int) string {
	return randomString(hexAlphabet, length)
}

// Timeout returns a valid-shaped token carrying the TimeoutPrefix marker.
func Timeout() string {
	return TimeoutPrefix + GenerateHexLen(Length-len(TimeoutPrefix))
}

// IsValid reports whether s is exactly 32 characters of [A-Z0-9], with no whitespace or
// other characters.
func IsValid(s string) bool {
	return validToken.MatchString(s)
}
