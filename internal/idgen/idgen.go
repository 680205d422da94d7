// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each document kind. Payments get a real id instead of being
// identified by their creation timestamp.
const (
	EventPrefix    = "evt-"
	CategoryPrefix = "cat-"
	ExpensePrefix  = "exp-"
	PaymentPrefix  = "pay-"
	FilePrefix     = "att-"
)

// Alphabet defines the character set used for the random portion of the ID.
// It never contains '/', so ids are safe as document path segments.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// Generator produces ids with a given prefix.
type Generator func(prefix string) (string, error)

// New returns a new unique ID with the given prefix.
func New(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
