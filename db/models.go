package db

// ActivityRecord is one proxied send attempt.
type ActivityRecord struct {
	Id         string  `db:"id"`
	Recipient  string  `db:"recipient"`
	StatusCode int     `db:"status_code"`
	Outcome    string  `db:"outcome"`
	Error      *string `db:"error"`
	CreatedAt  int64   `db:"created_at"` // unix millis
}
