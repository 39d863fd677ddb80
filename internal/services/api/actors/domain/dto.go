// Package domain defines the transport DTOs for the actors API
package domain

// ToggleInput is the body of POST /actors/{username}/activity
type ToggleInput struct {
	Handle   string `json:"handle" validate:"required"`
	Activity string `json:"activity" validate:"required,oneof=follow unfollow"`
}
