// Package stubapi is an in-memory double of the storefront backend. It
// implements the documented REST contract closely enough for local
// development and for integration tests to drive the real client
// against it; it carries no product business logic of its own.
package stubapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront-client/internal/domain"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errInvalidCredentials = errors.New("invalid credentials")
	errStock              = errors.New("insufficient stock")
)

const ordersPerPage = 10

type user struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type cartRow struct {
	ID        int64
	ProductID int64
	Quantity  int
}

// Store holds all stub state behind one lock. Every collection is keyed
// the way the real backend keys it: users by email, cart rows by
// server-assigned id, orders per user in insertion order.
type Store struct {
	tokens   *tokenManager
	tokenTTL time.Duration

	mu           sync.RWMutex
	nextID       int64
	users        map[int64]*user
	usersByEmail map[string]int64
	products     []*domain.Product
	carts        map[int64][]*cartRow
	addresses    map[int64][]*domain.Address
	orders       map[int64][]*domain.Order
	resetTokens  map[string]string
}

func NewStore(tokenTTL time.Duration) *Store {
	if tokenTTL <= 0 {
		tokenTTL = 48 * time.Hour
	}
	return &Store{
		tokens:       newTokenManager(),
		tokenTTL:     tokenTTL,
		users:        make(map[int64]*user),
		usersByEmail: make(map[string]int64),
		carts:        make(map[int64][]*cartRow),
		addresses:    make(map[int64][]*domain.Address),
		orders:       make(map[int64][]*domain.Order),
		resetTokens:  make(map[string]string),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Register creates an account. Password policy mirrors the backend:
// min 8 chars with upper, lower and digit.
func (s *Store) Register(name, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("valid email required")
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[email]; exists {
		return errEmailTaken
	}
	u := &user{
		ID:           s.id(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return nil
}

// Login checks credentials and issues a bearer token.
func (s *Store) Login(email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	s.mu.RLock()
	id, ok := s.usersByEmail[email]
	var hash []byte
	if ok {
		hash = s.users[id].PasswordHash
	}
	s.mu.RUnlock()
	if !ok {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", errInvalidCredentials
	}
	return s.tokens.Issue(id, s.tokenTTL)
}

// Authenticate resolves a bearer token to a user id.
func (s *Store) Authenticate(token string) (int64, bool) {
	return s.tokens.Validate(token)
}

// RevokeToken ends a session server-side.
func (s *Store) RevokeToken(token string) {
	s.tokens.Revoke(token)
}

func (s *Store) User(id int64) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}, true
}

func (s *Store) UpdateUser(id int64, name, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if email = strings.TrimSpace(strings.ToLower(email)); email != "" && email != u.Email {
		if _, taken := s.usersByEmail[email]; taken {
			return errEmailTaken
		}
		delete(s.usersByEmail, u.Email)
		u.Email = email
		s.usersByEmail[email] = u.ID
	}
	if password != "" {
		if err := validatePassword(password); err != nil {
			return err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.PasswordHash = hashed
	}
	return nil
}

// IssuePasswordReset returns a reset token for the account, or "" when
// the email is unknown (the real backend does not reveal which).
func (s *Store) IssuePasswordReset(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[email]; !ok {
		return ""
	}
	token := uuid.NewString()
	s.resetTokens[token] = email
	return token
}

func (s *Store) ResetPassword(email, token, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(password); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetTokens[token] != email {
		return errors.New("invalid or expired reset token")
	}
	id, ok := s.usersByEmail[email]
	if !ok {
		return domain.ErrNotFound
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.users[id].PasswordHash = hashed
	delete(s.resetTokens, token)
	return nil
}

// AddProduct registers a catalog entry, assigning an id and a slug if
// missing.
func (s *Store) AddProduct(p domain.Product) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Slug == "" {
		p.Slug = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p.Name)), " ", "-")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	stored := p
	s.products = append(s.products, &stored)
	return &stored
}

// RemoveProduct deletes a catalog entry but leaves cart rows pointing at
// it in place, the way the real backend can: those rows come back with a
// null product.
func (s *Store) RemoveProduct(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out
}

func (s *Store) LatestProducts(limit int) []domain.Product {
	all := s.Products()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []domain.Category
	var id int64
	for _, p := range s.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		id++
		out = append(out, domain.Category{
			ID:   id,
			Name: p.Category,
			Slug: strings.ReplaceAll(strings.ToLower(p.Category), " ", "-"),
		})
	}
	return out
}

func (s *Store) SearchProducts(keyword, category string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	category = strings.ToLower(strings.TrimSpace(category))
	var out []domain.Product
	for _, p := range s.products {
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Description), keyword) {
			continue
		}
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func (s *Store) ProductBySlug(slug string) (*domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug {
			copied := *p
			return &copied, true
		}
	}
	return nil, false
}

func (s *Store) productByID(id int64) *domain.Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Cart lists a user's rows in insertion order, resolving each product
// reference; rows whose product vanished keep a null product.
func (s *Store) Cart(userID int64) []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.carts[userID]
	out := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		item := domain.CartItem{ID: row.ID, Quantity: row.Quantity}
		if p := s.productByID(row.ProductID); p != nil {
			item.Product = p.Snapshot()
		}
		out = append(out, item)
	}
	return out
}

// AddCartItem merges into an existing row for the product or appends a
// new one, enforcing stock server-side as well.
func (s *Store) AddCartItem(userID, productID int64, qty int) error {
	if qty < 1 {
		return errors.New("quantity must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.productByID(productID)
	if p == nil {
		return domain.ErrNotFound
	}
	for _, row := range s.carts[userID] {
		if row.ProductID == productID {
			if row.Quantity+qty > p.Stock {
				return errStock
			}
			row.Quantity += qty
			return nil
		}
	}
	if qty > p.Stock {
		return errStock
	}
	s.carts[userID] = append(s.carts[userID], &cartRow{ID: s.id(), ProductID: productID, Quantity: qty})
	return nil
}

func (s *Store) UpdateCartItem(userID, rowID int64, qty int) error {
	if qty < 1 {
		return errors.New("quantity must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.carts[userID] {
		if row.ID == rowID {
			if p := s.productByID(row.ProductID); p != nil && qty > p.Stock {
				return errStock
			}
			row.Quantity = qty
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) RemoveCartItem(userID, rowID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.carts[userID]
	for i, row := range rows {
		if row.ID == rowID {
			s.carts[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) clearCartLocked(userID int64) {
	delete(s.carts, userID)
}

func (s *Store) Addresses(userID int64) []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrs := s.addresses[userID]
	out := make([]domain.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, *a)
	}
	return out
}

func (s *Store) AddAddress(userID int64, addr domain.Address) *domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr.ID = s.id()
	if addr.IsDefault {
		for _, a := range s.addresses[userID] {
			a.IsDefault = false
		}
	} else if len(s.addresses[userID]) == 0 {
		// First address becomes the default.
		addr.IsDefault = true
	}
	stored := addr
	s.addresses[userID] = append(s.addresses[userID], &stored)
	return &stored
}

func (s *Store) UpdateAddress(userID, id int64, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.addresses[userID] {
		if a.ID == id {
			if addr.IsDefault && !a.IsDefault {
				for _, other := range s.addresses[userID] {
					other.IsDefault = false
				}
			}
			addr.ID = id
			*a = addr
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) DeleteAddress(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := s.addresses[userID]
	for i, a := range addrs {
		if a.ID == id {
			s.addresses[userID] = append(addrs[:i], addrs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) addressByID(userID, id int64) *domain.Address {
	for _, a := range s.addresses[userID] {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// CreateOrder turns the user's cart into an order: validates rows
// against the catalog, prices the total, clears the cart.
func (s *Store) CreateOrder(userID, addressID int64, shipping domain.ShippingOption) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := s.addressByID(userID, addressID)
	if addr == nil {
		return nil, errors.New("address not found")
	}
	rows := s.carts[userID]
	if len(rows) == 0 {
		return nil, errors.New("cart is empty")
	}

	var items []domain.OrderItem
	var total int64
	for _, row := range rows {
		p := s.productByID(row.ProductID)
		if p == nil {
			return nil, fmt.Errorf("product %d no longer available", row.ProductID)
		}
		if row.Quantity > p.Stock {
			return nil, errStock
		}
		items = append(items, domain.OrderItem{
			ID:           row.ID,
			Name:         p.Name,
			Slug:         p.Slug,
			Quantity:     row.Quantity,
			UnitPrice:    p.UnitPrice,
			PrimaryImage: p.PrimaryImage,
		})
		total += p.UnitPrice * int64(row.Quantity)
	}
	for _, row := range rows {
		s.productByID(row.ProductID).Stock -= row.Quantity
	}

	addrCopy := *addr
	order := &domain.Order{
		ID:           s.id(),
		OrderNumber:  "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		Status:       "pending",
		TotalAmount:  total + shipping.Cost,
		ShippingCost: shipping.Cost,
		OrderDate:    time.Now().UTC(),
		Address:      &addrCopy,
		Shipment: &domain.Shipment{
			Courier: shipping.Code,
			Service: shipping.Service,
			Status:  "processing",
		},
		Items: items,
	}
	s.orders[userID] = append(s.orders[userID], order)
	s.clearCartLocked(userID)
	return order, nil
}

// Orders returns one page of the user's order history, newest first.
func (s *Store) Orders(userID int64, page int) ([]domain.Order, domain.PageMeta) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.orders[userID]
	total := len(all)
	lastPage := (total + ordersPerPage - 1) / ordersPerPage
	if lastPage == 0 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	meta := domain.PageMeta{CurrentPage: page, LastPage: lastPage, PerPage: ordersPerPage, Total: total}

	// Newest first.
	start := total - page*ordersPerPage
	end := start + ordersPerPage
	if end > total {
		end = total
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return nil, meta
	}
	out := make([]domain.Order, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, *all[i])
	}
	return out, meta
}

func (s *Store) Order(userID, id int64) (*domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders[userID] {
		if o.ID == id {
			copied := *o
			return &copied, true
		}
	}
	return nil, false
}

func (s *Store) ConfirmOrderReceived(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders[userID] {
		if o.ID == id {
			o.Status = "completed"
			if o.Shipment != nil {
				o.Shipment.Status = "delivered"
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func validatePassword(p string) error {
	if len(strings.TrimSpace(p)) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hasUpper, hasLower, hasDigit := false, false, false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
