package db

import (
	"database/sql"
	"errors"
)

// GetItem returns the stored value for key. A missing key yields ok == false.
func GetItem(key string) (value string, ok bool, err error) {
	err = DB.QueryRow("SELECT value FROM local_storage WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func SetItem(key, value string) error {
	_, err := DB.Exec(`INSERT INTO local_storage (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

func RemoveItem(key string) error {
	_, err := DB.Exec("DELETE FROM local_storage WHERE key = $1", key)
	return err
}
