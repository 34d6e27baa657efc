package db

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jane4246/coffee-advisory/models"
)

// MemStorage keeps everything in process memory; it is lost on restart.
// Each collection is a map for lookups plus an id slice for insertion order.
type MemStorage struct {
	mu    sync.RWMutex
	clock *clock

	users     map[string]models.User
	usernames map[string]string

	diagnoses     map[string]models.Diagnosis
	diagnosisList []string

	tips    map[string]models.FarmingTip
	tipList []string

	contacts    map[string]models.EmergencyContact
	contactList []string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		clock:     newClock(),
		users:     make(map[string]models.User),
		usernames: make(map[string]string),
		diagnoses: make(map[string]models.Diagnosis),
		tips:      make(map[string]models.FarmingTip),
		contacts:  make(map[string]models.EmergencyContact),
	}
}

func (m *MemStorage) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemStorage) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[username]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemStorage) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.usernames[u.Username]; taken {
		return models.User{}, ErrDuplicate
	}
	u.ID = uuid.NewString()
	m.users[u.ID] = u
	m.usernames[u.Username] = u.ID
	return u, nil
}

func (m *MemStorage) CreateDiagnosis(_ context.Context, d models.Diagnosis) (models.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt, d.Seq = m.clock.next()
	m.diagnoses[d.ID] = d
	m.diagnosisList = append(m.diagnosisList, d.ID)
	return d, nil
}

func (m *MemStorage) GetDiagnoses(_ context.Context, userID string) ([]models.Diagnosis, error) {
	m.mu.RLock()
	out := make([]models.Diagnosis, 0, len(m.diagnosisList))
	for _, id := range m.diagnosisList {
		d := m.diagnoses[id]
		if userID != "" && (d.UserID == nil || *d.UserID != userID) {
			continue
		}
		out = append(out, d)
	}
	m.mu.RUnlock()

	sortDiagnosesNewestFirst(out)
	return out, nil
}

func (m *MemStorage) GetDiagnosis(_ context.Context, id string) (models.Diagnosis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.diagnoses[id]
	if !ok {
		return models.Diagnosis{}, ErrNotFound
	}
	return d, nil
}

func (m *MemStorage) GetFarmingTips(_ context.Context, season string) ([]models.FarmingTip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.FarmingTip, 0, len(m.tipList))
	for _, id := range m.tipList {
		t := m.tips[id]
		if season != "" && t.Season != season {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MemStorage) CreateFarmingTip(_ context.Context, t models.FarmingTip) (models.FarmingTip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt, t.Seq = m.clock.next()
	m.tips[t.ID] = t
	m.tipList = append(m.tipList, t.ID)
	return t, nil
}

func (m *MemStorage) GetEmergencyContacts(_ context.Context) ([]models.EmergencyContact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.EmergencyContact, 0, len(m.contactList))
	for _, id := range m.contactList {
		if c := m.contacts[id]; c.IsActive == "true" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemStorage) CreateEmergencyContact(_ context.Context, c models.EmergencyContact) (models.EmergencyContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	if c.IsActive == "" {
		c.IsActive = "true"
	}
	_, c.Seq = m.clock.next()
	m.contacts[c.ID] = c
	m.contactList = append(m.contactList, c.ID)
	return c, nil
}

func (m *MemStorage) Close(context.Context) error { return nil }
