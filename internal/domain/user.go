package domain

// User is the signed-in profile kept in the local store.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"nome"`
	Email  string `json:"email"`
	Points int    `json:"pontos"`
}

// Establishment holds the session fields for the store the user is browsing.
type Establishment struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}
