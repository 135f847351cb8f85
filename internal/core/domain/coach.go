package domain

import "time"

type CoachStatus string

const (
	CoachActive   CoachStatus = "active"
	CoachInactive CoachStatus = "inactive"
)

type Coach struct {
	ID          ActorID
	Name        string
	Email       string
	HourlyRate  float64
	Status      CoachStatus
	Specialties []string
	CreatedAt   time.Time
}
