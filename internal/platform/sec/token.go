// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and the role policy.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, opaque
// token generation, role evaluation) from the domain logic. Domain packages
// depend on it; it depends on nothing under internal/.
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns length random bytes from crypto/rand encoded as
// unpadded base64url.
func GenerateSecureToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("auth: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// IsWellFormedToken reports whether token decodes to exactly length bytes of
// base64url, the shape produced by [GenerateSecureToken].
func IsWellFormedToken(token string, length int) bool {
	if base64.RawURLEncoding.EncodedLen(length) != len(token) {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(decoded) == length
}

// HashToken returns the hex SHA-256 digest stored in place of a raw token.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
