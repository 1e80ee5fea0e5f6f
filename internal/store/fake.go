package store

import (
	"errors"

	"github.com/sweeney/hotcirc/internal/logic"
)

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	// Record holds the persisted bytes, nil until the first Save.
	Record []byte

	// Saves counts Save calls.
	Saves int

	// LoadError / SaveError, if set, are returned by the methods.
	LoadError error
	SaveError error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Load decodes the in-memory record.
func (s *FakeStore) Load() (logic.Matrix, error) {
	if s.LoadError != nil {
		return logic.Matrix{}, s.LoadError
	}
	if s.Record == nil {
		return logic.Matrix{}, errors.New("fake store: no record")
	}
	return logic.DecodeMatrix(s.Record)
}

// Save encodes the matrix into the in-memory record.
func (s *FakeStore) Save(m logic.Matrix) error {
	if s.SaveError != nil {
		return s.SaveError
	}
	s.Record = m.Encode()
	s.Saves++
	return nil
}
