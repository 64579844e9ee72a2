// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the cryptographic primitives of the service: password
// hashing, session identifier generation and session cookie signing.
package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
//
// Each hash embeds its own random salt, so hashing the same password twice
// yields different strings. Cost is the bcrypt work factor.
type Hasher struct {
	cost int
}

// NewHasher returns a [Hasher] with the given cost. Out-of-range costs fall
// back to [bcrypt.DefaultCost].
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of a plain-text password.
func (hasher *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with a stored hash.
// A malformed hash is reported as a mismatch.
func (hasher *Hasher) Verify(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
