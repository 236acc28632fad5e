// Package roomcode generates and validates the short public codes players share to join a room.
package roomcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
)

// Alphabet excludes the visually ambiguous O, 0, I and 1.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the number of symbols in a room code.
const Length = 4

// DefaultPrefix namespaces room addresses on a shared signaling registry.
const DefaultPrefix = "eggcombat-"

var (
	ErrEmpty         = errors.New("room code cannot be empty")
	ErrInvalidLength = errors.New("room code must be 4 characters")
	ErrInvalidSymbol = errors.New("room code contains an invalid character")
)

// Code is a validated room code.
type Code string

func (c Code) String() string {
	return string(c)
}

// Generate draws Length independent uniform symbols from Alphabet.
// No uniqueness check is made against live rooms; collisions surface as an
// "address taken" error from the transport.
func Generate() Code {
	var b strings.Builder
	b.Grow(Length)
	for range Length {
		b.WriteByte(Alphabet[randomIndex(len(Alphabet))])
	}
	return Code(b.String())
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		slog.Error("failed to generate random index", "error", err)
		panic(err)
	}
	return int(n.Int64())
}

// Parse normalises user input (trimmed, upper-cased) and validates it.
func Parse(input string) (Code, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	if s == "" {
		return "", ErrEmpty
	}
	if len(s) != Length {
		return "", fmt.Errorf("%w: got %q", ErrInvalidLength, s)
	}
	for _, r := range s {
		if !strings.ContainsRune(Alphabet, r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, r)
		}
	}
	return Code(s), nil
}

// ParseInput accepts either a bare code or a room link such as
// https://eggcombat.example/r/B7XQ.
func ParseInput(input string) (Code, error) {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "://") || strings.Contains(input, "/") {
		return fromURL(input)
	}
	return Parse(input)
}

func fromURL(raw string) (Code, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse room link: %w", err)
	}

	parts := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "r" && i+1 < len(parts) && parts[i+1] != "" {
			return Parse(parts[i+1])
		}
	}
	return "", fmt.Errorf("could not extract room code from link: %s", raw)
}

// Namespace maps room codes to public transport addresses.
type Namespace struct {
	Prefix string
}

// ToAddress returns the public identifier for code: prefix + code.
func (n Namespace) ToAddress(c Code) string {
	return n.prefix() + string(c)
}

// FromAddress is the inverse of ToAddress.
func (n Namespace) FromAddress(addr string) (Code, bool) {
	rest, ok := strings.CutPrefix(addr, n.prefix())
	if !ok {
		return "", false
	}
	c, err := Parse(rest)
	return c, err == nil
}

func (n Namespace) prefix() string {
	if n.Prefix == "" {
		return DefaultPrefix
	}
	return n.Prefix
}

// ToAddress namespaces code under DefaultPrefix.
func ToAddress(c Code) string {
	return Namespace{}.ToAddress(c)
}
