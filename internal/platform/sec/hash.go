// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// # Argon2id Parameters

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
	argonPrefix         = "$argon2id$"
)

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// HashPassword hashes a plain-text password with Argon2id and a random salt.
//
// The result is encoded as $argon2id$v=19$m=<kib>,t=<passes>,p=<lanes>$<salt>$<key>.
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: failed to read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plainTextPassword), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// Argon2id hashes are compared in constant time. Hashes written by the previous
// bcrypt scheme are still accepted so existing accounts can log in and be rehashed.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	if isBcrypt(existingHash) {
		return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
	}

	params, err := decodeArgon(existingHash)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(plainTextPassword), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))
	return subtle.ConstantTimeCompare(candidate, params.key) == 1
}

// NeedsRehash reports whether a stored hash predates the current scheme or parameters.
func NeedsRehash(existingHash string) bool {
	if isBcrypt(existingHash) {
		return true
	}

	params, err := decodeArgon(existingHash)
	if err != nil {
		return true
	}

	return params.memory != argonMemory || params.time != argonTime ||
		params.threads != argonThreads || uint32(len(params.key)) != argonKeyLen
}

// BurnPasswordCheck spends the same work as a real verification against a
// throwaway hash. Callers use it when no account matched so both failure paths
// take comparable time.
func BurnPasswordCheck(plainTextPassword string) {
	dummyHashOnce.Do(func() {
		hash, err := HashPassword("crm-timing-equalizer")
		if err == nil {
			dummyHash = hash
		}
	})
	_ = CheckPasswordHash(plainTextPassword, dummyHash)
}

// isBcrypt reports whether the hash uses one of the bcrypt version prefixes.
func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// decodeArgon parses the PHC-style Argon2id encoding produced by [HashPassword].
func decodeArgon(encoded string) (*argonParams, error) {
	if !strings.HasPrefix(encoded, argonPrefix) {
		return nil, fmt.Errorf("auth: unsupported hash format")
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("auth: malformed argon2id hash")
	}

	var params argonParams
	for _, field := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("auth: malformed argon2id parameters")
		}

		number, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("auth: malformed argon2id parameter %q: %w", name, err)
		}

		switch name {
		case "m":
			params.memory = uint32(number)
		case "t":
			params.time = uint32(number)
		case "p":
			if number == 0 || number > 255 {
				return nil, fmt.Errorf("auth: argon2id parallelism out of range")
			}
			params.threads = uint8(number)
		default:
			return nil, fmt.Errorf("auth: unknown argon2id parameter %q", name)
		}
	}

	if params.memory == 0 || params.time == 0 || params.threads == 0 {
		return nil, fmt.Errorf("auth: incomplete argon2id parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("auth: malformed argon2id salt: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("auth: malformed argon2id key")
	}

	params.salt = salt
	params.key = key
	return &params, nil
}
