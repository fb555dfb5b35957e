package common

const (
	// envs:
	LocalEnv = "local"
	ProEnv   = "pro"

	// OS:
	WindowsOS = "windows"
	LinuxOS   = "linux"
	MacOS     = "darwin"

	// outcomes of a proxied send, as stored in the activity log:
	SentOutcome     = "sent"     // backend accepted the email
	RejectedOutcome = "rejected" // backend answered with a non-2xx status
	FailedOutcome   = "failed"   // backend unreachable or its response was unreadable
	InvalidOutcome  = "invalid"  // request failed validation, backend not called

	// messages shown on the home page:
	EmailSentMessage   = "Email sent successfully!"
	SendFailedMessage  = "Error: Failed to send email"
	ErrorMessagePrefix = "Error: "

	DefaultBackendURL   = "http://localhost:8080"
	DefaultEmailSubject = "Message from ChangeSet Demo"
)

var (
	SupportedEnvs = map[string]bool{
		LocalEnv: true,
		ProEnv:   true,
	}
)
