package demoapp

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already in use")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var roles = []string{"admin", "editor", "viewer"}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Report struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type SearchResult struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Stats struct {
	Users    int `json:"users"`
	Products int `json:"products"`
	Reports  int `json:"reports"`
}

// store keeps all application data in memory, in insertion order.
type store struct {
	mu sync.RWMutex

	users       []User
	products    []Product
	assignments map[uuid.UUID][]uuid.UUID
	tags        []Tag
	reports     []Report
}

func newStore() *store {
	return &store{assignments: make(map[uuid.UUID][]uuid.UUID)}
}

func (s *store) createUser(name, email, password, role string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = "viewer"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked first so the form can report a taken address even if other
	// fields are incomplete.
	if _, taken := lo.Find(s.users, func(u User) bool { return u.Email == email }); taken && email != "" {
		return User{}, ErrEmailTaken
	}
	switch {
	case !strings.Contains(email, "@"):
		return User{}, &ValidationError{Field: "email", Message: "Enter a valid email address"}
	case name == "":
		return User{}, &ValidationError{Field: "name", Message: "Full name is required"}
	case !lo.Contains(roles, role):
		return User{}, &ValidationError{Field: "role", Message: "Unknown role"}
	}

	u := User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      role,
		CreatedAt: time.Now(),
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *store) authenticate(email, password string) (User, bool) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Find(s.users, func(u User) bool {
		return u.Email == email && u.Password != "" && u.Password == password
	})
}

func (s *store) user(id uuid.UUID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := lo.Find(s.users, func(u User) bool { return u.ID == id })
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *store) userByEmail(email string) (User, bool) {
	email = strings.ToLower(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Find(s.users, func(u User) bool { return u.Email == email })
}

func (s *store) allUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]User{}, s.users...)
}

func (s *store) deleteUser(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := lo.IndexOf(lo.Map(s.users, func(u User, _ int) uuid.UUID { return u.ID }), id)
	if i < 0 {
		return ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	delete(s.assignments, id)
	return nil
}

func (s *store) createProduct(p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	switch {
	case p.Name == "":
		return Product{}, &ValidationError{Field: "name", Message: "Product name is required"}
	case p.Price < 0:
		return Product{}, &ValidationError{Field: "price", Message: "Price must not be negative"}
	}
	if p.Category == "" {
		p.Category = "General"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.SKU != "" && lo.ContainsBy(s.products, func(existing Product) bool { return existing.SKU == p.SKU }) {
		return Product{}, &ValidationError{Field: "sku", Message: "SKU already exists"}
	}

	p.ID = uuid.Must(uuid.NewV7())
	p.CreatedAt = time.Now()
	s.products = append(s.products, p)
	return p, nil
}

func (s *store) allProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Product{}, s.products...)
}

func (s *store) deleteProduct(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := lo.IndexOf(lo.Map(s.products, func(p Product, _ int) uuid.UUID { return p.ID }), id)
	if i < 0 {
		return ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	for userID, productIDs := range s.assignments {
		s.assignments[userID] = lo.Without(productIDs, id)
	}
	return nil
}

func (s *store) assign(userID, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !lo.ContainsBy(s.users, func(u User) bool { return u.ID == userID }) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if !lo.ContainsBy(s.products, func(p Product) bool { return p.ID == productID }) {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if !lo.Contains(s.assignments[userID], productID) {
		s.assignments[userID] = append(s.assignments[userID], productID)
	}
	return nil
}

func (s *store) userProducts(userID uuid.UUID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !lo.ContainsBy(s.users, func(u User) bool { return u.ID == userID }) {
		return nil, ErrNotFound
	}
	assigned := s.assignments[userID]
	return lo.Filter(s.products, func(p Product, _ int) bool {
		return lo.Contains(assigned, p.ID)
	}), nil
}

// search matches product and user names case-insensitively.
func (s *store) search(query string) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	results := []SearchResult{}
	if query == "" {
		return results
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			results = append(results, SearchResult{Type: "product", ID: p.ID, Name: p.Name})
		}
	}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), query) {
			results = append(results, SearchResult{Type: "user", ID: u.ID, Name: u.Name})
		}
	}
	return results
}

func (s *store) addTag(name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, &ValidationError{Field: "name", Message: "Tag name is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Tag{ID: uuid.Must(uuid.NewV7()), Name: name}
	s.tags = append(s.tags, t)
	return t, nil
}

func (s *store) allTags() []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Tag{}, s.tags...)
}

func (s *store) addReport(name string) (Report, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Report{}, &ValidationError{Field: "name", Message: "Report name is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{ID: uuid.Must(uuid.NewV7()), Name: name, CreatedAt: time.Now()}
	s.reports = append(s.reports, r)
	return r, nil
}

func (s *store) allReports() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Report{}, s.reports...)
}

func (s *store) stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Users: len(s.users), Products: len(s.products), Reports: len(s.reports)}
}
