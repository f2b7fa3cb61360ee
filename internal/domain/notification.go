package domain

// NotificationKind distinguishes toast styles.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a one-shot message shown on the next page render.
type Notification struct {
	Kind NotificationKind `json:"kind"`
	Text string           `json:"text"`
}

// User-facing notification texts.
const (
	MsgProfileCreated   = "Profile created successfully!"
	MsgProfileUpdated   = "Profile updated successfully!"
	MsgDuplicateStudent = "A profile with this Student ID already exists."
	MsgGenericFailure   = "An error occurred. Please try again."
)
