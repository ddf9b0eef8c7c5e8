package users

// User is one stored account. Passwords are kept as received; hashing is a
// known gap inherited from the service contract.
type User struct {
	ID         string
	Username   string
	Email      string
	Password   string
	Status     string
	Token      string
	CreatedAt  int64
	LastActive int64
}

// Store is the in-memory account index. Implementations are not safe for
// concurrent use; the service serializes access behind its mutex.
type Store interface {
	Put(u User)
	ByID(id string) (User, bool)
	ByUsername(username string) (User, bool)
}

type memoryStore struct {
	byID         map[string]User
	idByUsername map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{
		byID:         make(map[string]User),
		idByUsername: make(map[string]string),
	}
}

func (s *memoryStore) Put(u User) {
	s.byID[u.ID] = u
	s.idByUsername[u.Username] = u.ID
}

func (s *memoryStore) ByID(id string) (User, bool) {
	u, ok := s.byID[id]
	return u, ok
}

func (s *memoryStore) ByUsername(username string) (User, bool) {
	id, ok := s.idByUsername[username]
	if !ok {
		return User{}, false
	}
	return s.ByID(id)
}
