package mocks

import (
	"context"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]*domain.Document
	statements map[string]*domain.BankStatement

	SaveDocumentErr  error
	SaveStatementErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents:  make(map[string]*domain.Document),
		statements: make(map[string]*domain.BankStatement),
	}
}

func (m *MockDocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveDocumentErr != nil {
		return m.SaveDocumentErr
	}
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *MockDocumentStore) SaveStatement(ctx context.Context, st *domain.BankStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveStatementErr != nil {
		return m.SaveStatementErr
	}
	cp := *st
	m.statements[st.ID] = &cp
	return nil
}

func (m *MockDocumentStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, doc := range m.documents {
		if doc.SourceID == sourceID {
			count++
		}
	}
	return count, nil
}

// Helper methods for testing

func (m *MockDocumentStore) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

func (m *MockDocumentStore) StatementCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statements)
}

func (m *MockDocumentStore) Statements() []*domain.BankStatement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statements := make([]*domain.BankStatement, 0, len(m.statements))
	for _, st := range m.statements {
		cp := *st
		statements = append(statements, &cp)
	}
	return statements
}

// MockBlobStore is a mock implementation of BlobStore for testing
type MockBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	PutErr error
}

// NewMockBlobStore creates a new MockBlobStore
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		blobs: make(map[string][]byte),
	}
}

func (m *MockBlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.blobs[path] = data
	return nil
}

func (m *MockBlobStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, path)
	return nil
}

// Helper methods for testing

func (m *MockBlobStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func (m *MockBlobStore) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[path]
	return ok
}
