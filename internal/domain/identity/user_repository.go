package identity

import "github.com/invoicing/backend/internal/domain/shared"

// UserRepository persists users
type UserRepository interface {
	shared.Repository[User]
}
