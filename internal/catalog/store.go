package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deliverypicker/orderops/pkg/models"
)

const (
	StateVersion     = "1.0"
	DefaultStateFile = "catalog.json"
)

// ErrNotPermitted is returned when a mutating operation is attempted
// without the admin capability.
var ErrNotPermitted = errors.New("admin permission required")

// ErrNotFound is returned when a product ID is not in the catalog.
var ErrNotFound = errors.New("product not found")

// HistoryEntry records one catalog mutation.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // add, update, delete, import, bulk-edit
	Count     int       `json:"count"`
	Details   string    `json:"details"`
}

type stateFile struct {
	Version     string              `json:"version"`
	Products    []models.ProductRef `json:"products"`
	History     []HistoryEntry      `json:"history"`
	LastUpdated time.Time           `json:"last_updated"`
}

// Store persists the product catalog as an ordered JSON file. Order is
// load-bearing: the matcher's "first in catalog order wins" tie-break uses
// the same sequence List returns.
//
// Mutating operations take an explicit allowed capability flag; whether the
// caller is an admin is decided elsewhere and passed in, never read from
// ambient state. Every mutation is written to disk before it returns.
type Store struct {
	mu       sync.RWMutex
	filePath string
	state    *stateFile
}

// NewStore creates a store backed by filePath.
func NewStore(filePath string) *Store {
	if filePath == "" {
		filePath = DefaultStateFile
	}
	return &Store{
		filePath: filePath,
		state: &stateFile{
			Version:  StateVersion,
			Products: []models.ProductRef{},
			History:  []HistoryEntry{},
		},
	}
}

// Load reads the catalog from disk. A missing file yields an empty catalog.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = &stateFile{
				Version:  StateVersion,
				Products: []models.ProductRef{},
				History:  []HistoryEntry{},
			}
			return nil
		}
		return err
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if state.Version == "" {
		state.Version = StateVersion
	}
	s.state = &state
	return nil
}

// Save writes the catalog to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	s.state.LastUpdated = time.Now()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// List returns the products in catalog order.
func (s *Store) List() []models.ProductRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.ProductRef, len(s.state.Products))
	copy(products, s.state.Products)
	return products
}

// Get retrieves a product by ID.
func (s *Store) Get(id string) (models.ProductRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.ProductRef{}, false
}

// GetByIDs returns the products matching ids, in the order of ids.
// Unknown IDs are skipped.
func (s *Store) GetByIDs(ids []string) []models.ProductRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]models.ProductRef, len(s.state.Products))
	for _, p := range s.state.Products {
		byID[p.ID] = p
	}

	products := make([]models.ProductRef, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products
}

// Count returns the number of products.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Products)
}

// Add appends a product to the catalog. Requires the admin capability.
func (s *Store) Add(p models.ProductRef, allowed bool) (models.ProductRef, error) {
	if !allowed {
		return models.ProductRef{}, ErrNotPermitted
	}
	if p.Name == "" {
		return models.ProductRef{}, fmt.Errorf("product name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.state.Products = append(s.state.Products, p)
	s.appendHistoryLocked("add", 1, fmt.Sprintf("Added %s", p.Name))
	if err := s.saveLocked(); err != nil {
		return models.ProductRef{}, err
	}
	return p, nil
}

// Update replaces the product with the same ID. Requires the admin capability.
func (s *Store) Update(p models.ProductRef, allowed bool) error {
	if !allowed {
		return ErrNotPermitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.state.Products {
		if existing.ID == p.ID {
			s.state.Products[i] = p
			s.appendHistoryLocked("update", 1, fmt.Sprintf("Updated %s", p.Name))
			return s.saveLocked()
		}
	}
	return ErrNotFound
}

// Delete removes a product by ID. Requires the admin capability.
func (s *Store) Delete(id string, allowed bool) error {
	if !allowed {
		return ErrNotPermitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.state.Products {
		if existing.ID == id {
			s.state.Products = append(s.state.Products[:i], s.state.Products[i+1:]...)
			s.appendHistoryLocked("delete", 1, fmt.Sprintf("Deleted %s", existing.Name))
			return s.saveLocked()
		}
	}
	return ErrNotFound
}

// Import appends products in bulk, assigning IDs where missing. Requires
// the admin capability. Returns the number imported.
func (s *Store) Import(products []models.ProductRef, source string, allowed bool) (int, error) {
	if !allowed {
		return 0, ErrNotPermitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, p := range products {
		if p.Name == "" {
			continue
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		s.state.Products = append(s.state.Products, p)
		count++
	}

	s.appendHistoryLocked("import", count, fmt.Sprintf("Imported %d products from %s", count, source))
	if err := s.saveLocked(); err != nil {
		return 0, err
	}
	return count, nil
}

// BulkSetPrice sets the display price on every product in ids. Requires
// the admin capability. Returns the number updated.
func (s *Store) BulkSetPrice(ids []string, price string, allowed bool) (int, error) {
	if !allowed {
		return 0, ErrNotPermitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	count := 0
	for i := range s.state.Products {
		if wanted[s.state.Products[i].ID] {
			s.state.Products[i].Price = price
			count++
		}
	}

	s.appendHistoryLocked("bulk-edit", count, fmt.Sprintf("Set price %q on %d products", price, count))
	if err := s.saveLocked(); err != nil {
		return 0, err
	}
	return count, nil
}

// History returns the mutation log.
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]HistoryEntry, len(s.state.History))
	copy(history, s.state.History)
	return history
}

func (s *Store) appendHistoryLocked(action string, count int, details string) {
	s.state.History = append(s.state.History, HistoryEntry{
		Timestamp: time.Now(),
		Action:    action,
		Count:     count,
		Details:   details,
	})
}
