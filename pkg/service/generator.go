package service

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

// 62-symbol alphabet: digits, uppercase, lowercase.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const DefaultCodeLength = 6

var alphabetSize = big.NewInt(int64(len(codeAlphabet)))

var reservedAliases = map[string]bool{
	"admin":  true,
	"stats":  true,
	"result": true,
	"auth":   true,
	"api":    true,
	"health": true,
}

var aliasRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// GenerateCode draws length independent uniform symbols from the alphabet.
// crypto/rand.Int is uniform over [0,62), so there is no modulo bias.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ValidateAlias checks format and reserved-word rules only. Uniqueness is
// the registry's job. An empty alias is valid: no alias requested.
func ValidateAlias(alias string) error {
	if alias == "" {
		return nil
	}
	if reservedAliases[strings.ToLower(alias)] {
		return ErrAliasReserved
	}
	if !aliasRegex.MatchString(alias) {
		return ErrAliasInvalidFormat
	}
	return nil
}

// CodeAlphabet exposes the alphabet for tests.
func CodeAlphabet() string { return codeAlphabet }
