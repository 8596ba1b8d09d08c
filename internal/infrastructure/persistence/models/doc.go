// Package models holds the GORM rows behind the invoicing repositories.
// Domain entities carry no ORM tags; each model converts to and from its
// entity through ToDomain and a ...ModelFromDomain constructor.
package models
