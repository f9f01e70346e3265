package accounts

import (
	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers this package's models with the persistence layer
// so fixtures and migrations can resolve them by name. Call once during
// application bootstrap, before persistence.New.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
}
