package language

import "sync"

// PreferenceStore holds each user's preferred translation language for the
// lifetime of the process. Preferences are not persisted; a restart resets
// everyone to the default.
//
// Event handlers run on their own goroutines, so the map is mutex guarded.
type PreferenceStore struct {
	mu          sync.RWMutex
	preferences map[string]string
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{
		preferences: make(map[string]string),
	}
}

// Get returns the user's preferred language code, or DefaultCode if the user
// never set one.
func (s *PreferenceStore) Get(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if code, ok := s.preferences[userID]; ok {
		return code
	}
	return DefaultCode
}

// Set overwrites the user's preferred language code unconditionally.
// Validating the code against the supported enumeration is the caller's
// responsibility.
func (s *PreferenceStore) Set(userID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preferences[userID] = code
}
