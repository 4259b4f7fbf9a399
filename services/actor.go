package services

import "github.com/kendall-kelly/delivery-tracker-api/models"

// Actor is the authenticated caller on whose behalf an operation runs
type Actor struct {
	ID   uint
	Name string
	Role models.Role
}

func (a Actor) ref() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) label() string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.Role)
}
