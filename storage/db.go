package storage

import (
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"go.etcd.io/bbolt"
	"path"
	"time"
)

const DBPath = "db"

func GetDBPath() string {
	return path.Join(utils.GetSubFolder(DBPath), "data.db")
}

func GetDB() (*bbolt.DB, error) {
	return OpenDB(GetDBPath())
}

func OpenDB(filePath string) (*bbolt.DB, error) {
	return bbolt.Open(filePath, 0600, &bbolt.Options{Timeout: time.Second})
}
