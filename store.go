package main

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Store persists proxied upstream responses in sqlite so repeated proxy
// hits for the same image do not refetch the origin. The search cache is
// deliberately not persisted here.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

const reqTable string = `
  CREATE TABLE IF NOT EXISTS reqdata (
      httpdata BLOB NOT NULL,
      hash TEXT NOT NULL,
      expiry INT NOT NULL
  )
`

const dbFile string = "data/cache.db"

func NewStore(cfg *Config, log *logrus.Logger) *Store {
	filename := dbFile
	if cfg.Database != "" {
		filename = cfg.Database
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		log.WithError(err).Panic("failed to open cache database")
	}
	if _, err := db.Exec(reqTable); err != nil {
		log.WithError(err).Panic("failed to create cache table")
	}
	return &Store{db: db, log: log}
}

func (store *Store) DeleteBefore(expiry int64) {
	if _, err := store.db.Exec("DELETE FROM reqdata WHERE expiry < ?", expiry); err != nil {
		store.log.WithError(err).Error("failed to purge expired responses")
	}
}

func (store *Store) GetResponse(hash string) ([]byte, bool) {
	row := store.db.QueryRow("SELECT httpdata FROM reqdata WHERE hash = ? AND expiry >= ?", hash, time.Now().Unix())
	var data []byte
	if err := row.Scan(&data); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			store.log.WithError(err).Error("failed to read cached response")
		}
		return nil, false
	}
	return data, true
}

func (store *Store) StoreResponse(hash string, res []byte, expiry int64) {
	if _, err := store.db.Exec("INSERT INTO reqdata VALUES (?,?,?)", res, hash, expiry); err != nil {
		store.log.WithError(err).Error("failed to store response")
	}
}
