package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateProducesValidTokens(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := Generate()
		assert.Len(t, tok, Length)
		assert.True(t, IsValid(tok), "generated token %q should be valid", tok)
		seen[tok] = true
	}
	assert.Greater(t, len(seen), 90, "tokens should not repeat")
}

func TestGenerateHexUsesOnlyHexCharacters(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok := GenerateHex()
		assert.Len(t, tok, Length)
		assert.True(t, IsValid(tok), "hex tokens are a subset of valid tokens")
		for _, ch := range tok {
			assert.Contains(t, hexAlphabet, string(ch))
		}
	}
}

func TestGenerateLen(t *testing.T) {
	assert.Len(t, GenerateLen(31), 31)
	assert.Len(t, GenerateLen(100), 100)
	assert.False(t, IsValid(GenerateLen(31)))
	assert.False(t, IsValid(GenerateLen(33)))
}

func TestTimeoutToken(t *testing.T) {
	tok := Timeout()
	assert.Len(t, tok, Length)
	assert.True(t, IsValid(tok))
	assert.True(t, strings.HasPrefix(tok, TimeoutPrefix))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("0123456789ABCDEF0123456789ABCDEF"))
	assert.True(t, IsValid("ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ"))

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("0123456789abcdef0123456789abcdef"), "lowercase is not allowed")
	assert.False(t, IsValid("0123456789ABCDEF0123456789ABCDE"), "31 chars")
	assert.False(t, IsValid("0123456789ABCDEF0123456789ABCDEF0"), "33 chars")
	assert.False(t, IsValid("0123456789ABCDEF0123456789ABCDEF "), "trailing whitespace")
	assert.False(t, IsValid(" 0123456789ABCDEF0123456789ABCDE"), "leading whitespace")
	assert.False(t, IsValid("0123456789ABCDEF0123456789@#$%^&"), "special characters")
	assert.False(t, IsValid("'; DROP TABLE tokens; --"), "SQL metacharacters")
	assert.False(t, IsValid("<script>alert('x')</script>"), "HTML metacharacters")
}
