package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor, 2^10 rounds
const PasswordHashCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

// HashPassword will generate a salted bcrypt hash for the password.
// The salt is drawn fresh for every call and embedded in the output.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", NewHashingFailure(err)
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches the stored hash.
// Any failure, including a malformed hash, is a plain false.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BcryptHasher is the default PasswordAuthenticator
type BcryptHasher struct{}

var _ PasswordAuthenticator = BcryptHasher{}

func (BcryptHasher) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (BcryptHasher) VerifyPassword(password, hash string) bool {
	return VerifyPassword(password, hash)
}

// dummyPasswordHash is compared against when a login names an unknown
// email. It panics rather than return an empty hash, which bcrypt would
// reject immediately.
var dummyPasswordHash = sync.OnceValue(func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), PasswordHashCost)
	if err != nil {
		panic(err)
	}
	return string(h)
})
