package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Standing is one leaderboard row.
type Standing struct {
	Rank             int                `json:"rank"`
	MemberID         primitive.ObjectID `json:"memberId"`
	Name             string             `json:"name"`
	Points           int                `json:"points"`
	TrainingSessions int                `json:"trainingSessions"`
}

// Achievement is a badge shown on a member's profile.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}
