package mocks

import (
	"context"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
)

// Judge is a mock implementation of ports.Judge.
type Judge struct {
	// ID is returned by Name.
	ID string
	// Opinion is the configured answer.
	Opinion ports.Opinion
	// Err, when set, is returned instead of the opinion.
	Err error
	// Block, when true, waits for ctx cancellation before answering.
	Block bool
	// Calls counts Judge invocations.
	Calls int
}

// Name identifies the persona.
func (m *Judge) Name() string { return m.ID }

// Judge returns the configured opinion or error.
func (m *Judge) Judge(ctx context.Context, _ []entities.EditRecord, _ map[string]string) (ports.Opinion, error) {
	m.Calls++
	if m.Block {
		<-ctx.Done()
		return ports.Opinion{}, ctx.Err()
	}
	if m.Err != nil {
		return ports.Opinion{}, m.Err
	}
	return m.Opinion, nil
}
