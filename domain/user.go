package domain

// UserRef is the read-only view of an account owned by the identity directory.
type UserRef struct {
	ID          UserID
	Username    string
	DisplayName string
	IsActive    bool
	IsOnline    bool
}

// UnknownUsername is shown when a sender can no longer be resolved.
const UnknownUsername = "Unknown"
