package dao

import (
	"server-invest-app/internal/db"
)

type app struct {
}

var App = new(app)

// GetKey returns the signing secret of a caller registered in the app table.
func (*app) GetKey(appID string) (key string, err error) {
	row := db.MysqlCli.QueryRow("select pay_secret from app where app_id = ?", appID)
	err = row.Scan(&key)
	return
}
