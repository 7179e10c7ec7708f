package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// LoadStaff ingests username,display_name,password rows into the staff
// table, ignoring usernames that already exist. Passwords already in bcrypt
// form are stored as is.
func LoadStaff(db *sqlx.DB, csvPath string) int {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load staff list %s: %v", csvPath, err)
		return 0
	}
	defer file.Close()
	return loadStaff(db, file)
}

func loadStaff(db *sqlx.DB, src io.Reader) int {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read staff header: %v", err)
		return 0
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start staff transaction: %v", err)
		return 0
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO staff (username, display_name, password) VALUES (?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare staff insert: %v", err)
		_ = tx.Rollback()
		return 0
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read staff row: %v", err)
			continue
		}
		if len(record) < 3 {
			continue
		}
		username := strings.ToLower(strings.TrimSpace(record[0]))
		displayName := strings.TrimSpace(record[1])
		password := strings.TrimSpace(record[2])

		if username == "" || displayName == "" || password == "" {
			continue
		}

		hashed := []byte(password)
		if _, err := bcrypt.Cost(hashed); err != nil {
			hashed, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				log.Printf("unable to hash password for %s: %v", username, err)
				continue
			}
		}

		res, err := stmt.Exec(username, displayName, string(hashed))
		if err != nil {
			log.Printf("unable to insert staff %s: %v", username, err)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit staff seed: %v", err)
		return 0
	}
	log.Printf("seeded staff list with %d rows", rows)
	return rows
}
