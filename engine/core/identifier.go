package core

import "github.com/google/uuid"

// Identifier tags long-lived engine objects in log output.
type Identifier uuid.UUID

func NewIdentifier() Identifier {
	return Identifier(uuid.New())
}

func (id Identifier) String() string {
	return uuid.UUID(id).String()
}

// Short is the first block of the identifier, enough to tell objects apart in logs.
func (id Identifier) Short() string {
	return id.String()[:8]
}
