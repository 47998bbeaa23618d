package repository

import (
	"context"
	"sync"

	"teahouse/internal/model"
)

// MemoryTeaRepository keeps teas in a process-lifetime slice. Lookups are a
// linear scan; ids come from a counter and are never reused.
type MemoryTeaRepository struct {
	mu     sync.RWMutex
	teas   []model.Tea
	nextID int
}

func NewMemoryTeaRepository() *MemoryTeaRepository {
	return &MemoryTeaRepository{teas: []model.Tea{}, nextID: 1}
}

func (r *MemoryTeaRepository) Create(_ context.Context, input model.TeaInput) (model.Tea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tea := model.Tea{ID: r.nextID, Name: input.Name, Price: input.Price}
	r.nextID++
	r.teas = append(r.teas, tea)

	return tea, nil
}

func (r *MemoryTeaRepository) List(_ context.Context) ([]model.Tea, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Tea, len(r.teas))
	copy(out, r.teas)
	return out, nil
}

func (r *MemoryTeaRepository) FindByID(_ context.Context, id int) (model.Tea, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx := r.indexOf(id); idx >= 0 {
		return r.teas[idx], nil
	}
	return model.Tea{}, model.ErrTeaNotFound
}

func (r *MemoryTeaRepository) Update(_ context.Context, id int, input model.TeaInput) (model.Tea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return model.Tea{}, model.ErrTeaNotFound
	}

	r.teas[idx].Name = input.Name
	r.teas[idx].Price = input.Price
	return r.teas[idx], nil
}

func (r *MemoryTeaRepository) Delete(_ context.Context, id int) (model.Tea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return model.Tea{}, model.ErrTeaNotFound
	}

	removed := r.teas[idx]
	r.teas = append(r.teas[:idx], r.teas[idx+1:]...)
	return removed, nil
}

// indexOf must be called with mu held.
func (r *MemoryTeaRepository) indexOf(id int) int {
	for i, tea := range r.teas {
		if tea.ID == id {
			return i
		}
	}
	return -1
}
