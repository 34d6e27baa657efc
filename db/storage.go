package db

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jane4246/coffee-advisory/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Storage is the persistence contract shared by every driver. Records are
// write-once: there are no update or delete operations.
type Storage interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)

	CreateDiagnosis(ctx context.Context, d models.Diagnosis) (models.Diagnosis, error)
	// GetDiagnoses lists most-recent-first; an empty userID lists everyone's.
	GetDiagnoses(ctx context.Context, userID string) ([]models.Diagnosis, error)
	GetDiagnosis(ctx context.Context, id string) (models.Diagnosis, error)

	// GetFarmingTips lists in insertion order; an empty season lists all.
	GetFarmingTips(ctx context.Context, season string) ([]models.FarmingTip, error)
	CreateFarmingTip(ctx context.Context, t models.FarmingTip) (models.FarmingTip, error)

	// GetEmergencyContacts returns only contacts whose IsActive is "true".
	GetEmergencyContacts(ctx context.Context) ([]models.EmergencyContact, error)
	CreateEmergencyContact(ctx context.Context, c models.EmergencyContact) (models.EmergencyContact, error)

	Close(ctx context.Context) error
}

// Store is the process-wide storage handle, set in main.
var Store Storage

// clock hands out creation timestamps and sequence numbers that never go
// backwards, even if the wall clock does.
type clock struct {
	mu   sync.Mutex
	last time.Time
	seq  int64
	now  func() time.Time
}

func newClock() *clock {
	return &clock{now: time.Now}
}

func (c *clock) next() (time.Time, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	c.seq++
	return t, c.seq
}

// resume makes the clock continue after previously persisted records.
func (c *clock) resume(last time.Time, seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last.After(c.last) {
		c.last = last.UTC()
	}
	if seq > c.seq {
		c.seq = seq
	}
}

func sortDiagnosesNewestFirst(ds []models.Diagnosis) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].CreatedAt.Equal(ds[j].CreatedAt) {
			return ds[i].CreatedAt.After(ds[j].CreatedAt)
		}
		return ds[i].Seq > ds[j].Seq
	})
}
