package accounts

import (
	"context"
	crand "crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// DefaultTokenLength is the confirmation token length.
const DefaultTokenLength = 20

// DefaultMaxTokenAttempts bounds the collision-retry loop. With a 36^20
// space a single retry is already unlikely; exhausting the bound means the
// store or the random source is broken.
const DefaultMaxTokenAttempts = 100

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var mnemonicConsonants = []rune("bcdfghjklmnpqrstvwxyz")
var mnemonicVowels = []rune("aeiou")

// mnemonicBlocklist rejects generated passwords containing substrings that
// read as offensive words in English, Portuguese, or Spanish.
var mnemonicBlocklist = []string{
	"bix", "bob", "con", "cum", "fod", "fuc", "fud", "fuk",
	"gal", "gat", "gay", "mal", "mam", "mar", "mec", "pat", "peg", "per", "pic",
	"pil", "pit", "put", "rab", "sex", "tar", "tes", "tet", "tol", "vac", "xup",
}

// TokenIndex is the slice of the credential store the generator needs to
// check a candidate token for collisions. GetByToken reports an unused token
// with a nil user or a record-not-found error.
type TokenIndex interface {
	GetByToken(ctx context.Context, token string) (*User, error)
}

// TokenGenerator produces unique confirmation tokens and mnemonic passwords.
type TokenGenerator struct {
	index       TokenIndex
	maxAttempts int
	intn        func(n int) int
	logger      Logger
}

// TokenGeneratorOption customizes a TokenGenerator.
type TokenGeneratorOption func(*TokenGenerator)

// WithMaxTokenAttempts overrides the collision-retry bound.
func WithMaxTokenAttempts(n int) TokenGeneratorOption {
	return func(g *TokenGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRandSource injects the random source, useful to make generation
// deterministic in tests.
func WithRandSource(intn func(n int) int) TokenGeneratorOption {
	return func(g *TokenGenerator) {
		if intn != nil {
			g.intn = intn
		}
	}
}

// WithTokenLogger overrides the generator's logger.
func WithTokenLogger(logger Logger) TokenGeneratorOption {
	return func(g *TokenGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewTokenGenerator returns a generator that checks candidates against the
// given index.
func NewTokenGenerator(index TokenIndex, opts ...TokenGeneratorOption) *TokenGenerator {
	g := &TokenGenerator{
		index:       index,
		maxAttempts: DefaultMaxTokenAttempts,
		intn:        defaultIntN,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// GenerateConfirmationToken draws length characters from the 36-character
// lowercase alphanumeric alphabet and regenerates until the result collides
// with no stored token. Attempts are bounded; the loop fails with
// ErrTokenSpaceExhausted rather than spinning on a corrupt store.
func (g *TokenGenerator) GenerateConfirmationToken(ctx context.Context, length int) (string, error) {
	if length <= 0 {
		length = DefaultTokenLength
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		var b strings.Builder
		b.Grow(length)
		for i := 0; i < length; i++ {
			b.WriteByte(tokenAlphabet[g.intn(len(tokenAlphabet))])
		}
		token := b.String()

		taken, err := g.tokenInUse(ctx, token)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token for collision")
		}
		if !taken {
			return token, nil
		}

		g.logger.Warn("confirmation token collision, regenerating", "attempt", attempt+1)
	}

	return "", ErrTokenSpaceExhausted.WithMetadata(map[string]any{
		"attempts": g.maxAttempts,
		"length":   length,
	})
}

func (g *TokenGenerator) tokenInUse(ctx context.Context, token string) (bool, error) {
	user, err := g.index.GetByToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return user != nil, nil
}

// GenerateMnemonicPassword builds a pronounceable password by alternating
// consonants and vowels, regenerating whenever a blocklisted substring shows
// up. digits random decimal digits are appended when positive, prepended
// when negative, omitted when zero.
func (g *TokenGenerator) GenerateMnemonicPassword(letters, digits int) string {
	var word string
	for {
		runes := make([]rune, letters)
		for i := 0; i < letters; i++ {
			if i%2 == 0 {
				runes[i] = mnemonicConsonants[g.intn(len(mnemonicConsonants))]
			} else {
				runes[i] = mnemonicVowels[g.intn(len(mnemonicVowels))]
			}
		}
		word = string(runes)

		if !containsBlocked(word) {
			break
		}
	}

	switch {
	case digits > 0:
		var b strings.Builder
		b.WriteString(word)
		for i := 0; i < digits; i++ {
			b.WriteByte(byte('0' + g.intn(10)))
		}
		return b.String()
	case digits < 0:
		var b strings.Builder
		for i := 0; i < -digits; i++ {
			b.WriteByte(byte('0' + g.intn(10)))
		}
		b.WriteString(word)
		return b.String()
	default:
		return word
	}
}

func containsBlocked(word string) bool {
	for _, blocked := range mnemonicBlocklist {
		if strings.Contains(word, blocked) {
			return true
		}
	}
	return false
}

func defaultIntN(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(v.Int64())
}
