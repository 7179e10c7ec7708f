package domain

// Staff is a shop member who can issue receipts and be credited as PIC.
type Staff struct {
	ID          int64  `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	DisplayName string `json:"display_name" db:"display_name"`
	Password    string `json:"password,omitempty" db:"password"`
	CreatedAt   string `json:"created_at,omitempty" db:"created_at"`
}
