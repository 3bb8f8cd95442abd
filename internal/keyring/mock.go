package keyring

// MockStore implements Store for testing. It stores secrets in memory and
// can be configured to fail, for exercising error paths.
type MockStore struct {
	data map[string]string
	err  error
}

// NewMockStore creates a new mock keyring store for testing.
func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]string),
	}
}

// Get retrieves a secret from the mock store.
func (m *MockStore) Get(service, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[service+":"+key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores a secret in the mock store.
func (m *MockStore) Set(service, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.data[service+":"+key] = value
	return nil
}

// Delete removes a secret from the mock store.
func (m *MockStore) Delete(service, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, service+":"+key)
	return nil
}

// WithError configures the mock to fail every operation with err.
func (m *MockStore) WithError(err error) *MockStore {
	m.err = err
	return m
}

// WithData pre-populates the mock store with a secret.
func (m *MockStore) WithData(service, key, value string) *MockStore {
	m.data[service+":"+key] = value
	return m
}
