package memory

import (
	"context"
	"sync"

	"github.com/robertarktes/show-seat-booking/internal/domain"
)

type Inventory struct {
	mu    sync.RWMutex
	shows map[int64]int
}

func NewInventory(shows ...domain.Show) *Inventory {
	inv := &Inventory{shows: make(map[int64]int, len(shows))}
	for _, s := range shows {
		inv.shows[s.ID] = s.TotalSeats
	}
	return inv
}

func (i *Inventory) AddShow(s domain.Show) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.shows[s.ID] = s.TotalSeats
}

func (i *Inventory) TotalSeats(ctx context.Context, showID int64) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	total, ok := i.shows[showID]
	if !ok {
		return 0, domain.ErrShowNotFound
	}
	return total, nil
}
