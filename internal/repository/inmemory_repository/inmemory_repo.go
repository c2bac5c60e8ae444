package inmemoryrepository

import (
	"context"
	"fmt"
	"sync"

	"workOrders/internal/repository"
)

type InMemoryRepository struct {
	Data map[string]string
	Mu   *sync.Mutex
}

func NewInmemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		Data: make(map[string]string),
		Mu:   &sync.Mutex{},
	}
}

var _ repository.ReadWriteRepository = (*InMemoryRepository)(nil)

func (inm *InMemoryRepository) Get(ctx context.Context, key string) (string, error) {
	inm.Mu.Lock()
	defer inm.Mu.Unlock()

	value, ok := inm.Data[key]
	if !ok {
		return "", repository.NewErrorNotFound(fmt.Sprintf("Key %s not found", key))
	}
	return value, nil
}

func (inm *InMemoryRepository) Set(ctx context.Context, key string, value string) error {
	inm.Mu.Lock()
	defer inm.Mu.Unlock()

	inm.Data[key] = value
	return nil
}

func (inm *InMemoryRepository) Delete(ctx context.Context, key string) error {
	inm.Mu.Lock()
	defer inm.Mu.Unlock()

	delete(inm.Data, key)
	return nil
}
