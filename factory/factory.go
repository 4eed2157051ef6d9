// Package factory generates unique test data so tests running in parallel
// never collide on emails, SKUs or names.
package factory

import (
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

// Role of a generated user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// User is a user record that does not exist in the application yet.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Product is a product record that does not exist in the application yet.
type Product struct {
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

const (
	emailDomain      = "qa.example.com"
	defaultCategory  = "Electronics"
	defaultStringLen = 8
	shortIDLen       = 6
	minPrice         = 9.99
	priceRange       = 100.0
)

var alphabet = append(append([]rune{}, lo.LowerCaseLettersCharset...), lo.NumbersCharset...)

// NewUser returns a user with a unique email and the editor role.
func NewUser() User {
	id := RandomString(shortIDLen)
	return User{
		Name:     "Test User " + id,
		Email:    fmt.Sprintf("test.user.%s@%s", UniqueToken(), emailDomain),
		Password: "Passw0rd!" + id,
		Role:     RoleEditor,
	}
}

// NewProduct returns a product with a unique SKU and a price between 9.99
// and 109.99.
func NewProduct() Product {
	token := UniqueToken()
	return Product{
		Name:        "Product " + token,
		SKU:         "SKU-" + strings.ToUpper(token),
		Price:       math.Round((rand.Float64()*priceRange+minPrice)*100) / 100,
		Description: "Auto-generated product for test run " + token,
		Category:    defaultCategory,
	}
}

// UniqueToken returns a short lowercase token that is unique across
// processes. It is a version 7 UUID rendered in base 36.
func UniqueToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		// V7 only fails if the system random source fails.
		id = uuid.Must(uuid.NewV4())
	}
	return new(big.Int).SetBytes(id.Bytes()).Text(36)
}

// RandomString returns n characters from [a-z0-9]. It returns 8 characters
// when n is not positive.
func RandomString(n int) string {
	if n <= 0 {
		n = defaultStringLen
	}
	return lo.RandomString(n, alphabet)
}

// Timestamp is TimestampAt for the current time.
func Timestamp() string {
	return TimestampAt(time.Now())
}

// TimestampAt renders t as a UTC ISO-8601 string with millisecond precision
// that is safe for file names, e.g. 2026-02-19T10-30-45-123Z.
func TimestampAt(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}
