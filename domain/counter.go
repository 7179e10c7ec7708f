package domain

// DailyCounter is the persisted shape of the receipt sequence counter.
// LastResetDate is formatted as YYYY-MM-DD in the shop's time zone.
type DailyCounter struct {
	Name          string `json:"name" db:"name"`
	LastResetDate string `json:"last_reset_date" db:"last_reset_date"`
	Sequence      int64  `json:"sequence" db:"sequence"`
	UpdatedAt     string `json:"updated_at,omitempty" db:"updated_at"`
}
