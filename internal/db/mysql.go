package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"server-invest-app/config"
	"server-invest-app/internal/model"
)

var (
	MysqlCli *sql.DB
	GormCli  *gorm.DB
)

func Init() {
	connMysql()
	connGorm()
	if config.MySql.AutoMigrate {
		if err := Migrate(); err != nil {
			log.Errorf("err: %+v", err)
			panic(err)
		}
	}
}

func connMysql() {
	var err error
	mysqlCfg := config.MySql
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=Local", mysqlCfg.User, mysqlCfg.Password,
		mysqlCfg.Host, mysqlCfg.Database, mysqlCfg.Charset)
	MysqlCli, err = sql.Open("mysql", dsn)
	if err != nil {
		log.Error("Connect mysql error: ", err, " Connect host: ", mysqlCfg.Host)
		panic(err)
	}

	MysqlCli.SetMaxIdleConns(mysqlCfg.MaxIdleConns)
	MysqlCli.SetMaxOpenConns(mysqlCfg.MaxOpenConns)
	if mysqlCfg.ConnMaxLifetime > 0 {
		MysqlCli.SetConnMaxLifetime(time.Duration(mysqlCfg.ConnMaxLifetime) * time.Second)
	}
	log.Infof("conn mysql %s/%s success", mysqlCfg.Host, mysqlCfg.Database)
}

// connGorm shares the sql pool opened by connMysql.
func connGorm() {
	var err error
	GormCli, err = OpenGorm(MysqlCli)
	if err != nil {
		log.Error("Open gorm error: ", err)
		panic(err)
	}
}

func OpenGorm(conn *sql.DB) (*gorm.DB, error) {
	return gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates every table the service owns.
func Migrate() error {
	err := GormCli.AutoMigrate(
		&model.User{},
		&model.Package{},
		&model.BotActivation{},
		&model.Transaction{},
		&model.Earning{},
		&model.LostCommission{},
		&model.Distribution{},
		&model.CommissionLevel{},
		&model.Counter{},
		&model.App{},
	)
	return errors.Wrap(err, "auto migrate")
}
