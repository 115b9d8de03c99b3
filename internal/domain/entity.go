// Package domain contains the core data types shared by the form workflow,
// the persistence layer and the HTTP handlers. It depends only on uuid.
package domain

// Entity is any object a form can be bound to and the persistence manager can
// track. Identity reports the entity's primary key; ok is false while the
// entity has never been stored, which is what makes a form run in create mode.
//
// Implementations are pointer types so the manager can track them by identity.
type Entity interface {
	Identity() (id string, ok bool)
}
