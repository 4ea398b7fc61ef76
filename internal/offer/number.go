package offer

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const (
	numberPrefix  = "BSD"
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tokenLength   = 6
)

// NumberPattern matches the canonical offer number BSD-YYYY-XXXXXX.
var NumberPattern = regexp.MustCompile(`^BSD-\d{4}-[0-9A-Z]{6}$`)

// NumberGenerator produces human-readable offer numbers. Uniqueness is enforced
// by the store; callers regenerate on a duplicate.
type NumberGenerator interface {
	Next(now time.Time) (string, error)
}

// RandomNumbers generates BSD-YYYY-XXXXXX numbers with a crypto/rand token.
type RandomNumbers struct{}

func (RandomNumbers) Next(now time.Time) (string, error) {
	token := make([]byte, tokenLength)
	base := big.NewInt(int64(len(tokenAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate offer number: %w", err)
		}
		token[i] = tokenAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%04d-%s", numberPrefix, now.Year(), token), nil
}
