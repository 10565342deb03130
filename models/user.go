package models

import "time"

// CredentialsKey is the id of the singleton admin credentials row.
const CredentialsKey = "admin_credentials"

// Credentials is the admin login record. Only the bcrypt hash is stored.
type Credentials struct {
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"passwordHash" bson:"password"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// CredentialsChange is the admin settings form.
type CredentialsChange struct {
	CurrentUsername string `json:"currentUsername"`
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
