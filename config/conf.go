package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var confPath string

func init() {
	flag.StringVar(&confPath, "conf", "configs/", "default config path")
}

var (
	Server   server
	MySql    mysql
	Referral referral
	Notify   notify
	Dgraph   dgraph
)

// Server 配置
type server struct {
	Env        string `yaml:"env"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	DomainName string `yaml:"domain_name"`
	LogLevel   string `yaml:"log_level"`
	AdminToken string `yaml:"admin_token"`
	Timezone   string `yaml:"timezone"`
}

type mysql struct {
	Host            string `yaml:"host"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// Level is one row of the default commission table, percentage of principal.
type Level struct {
	Level      int    `yaml:"level"`
	Percentage string `yaml:"percentage"`
}

type referral struct {
	ChainSource    string  `yaml:"chain_source"` // mysql | dgraph
	Scale          *int32  `yaml:"scale"`        // decimal places, unset means 2
	Levels         []Level `yaml:"levels"`
	Timeout        int     `yaml:"timeout"` // seconds
	ExpireSchedule string  `yaml:"expire_schedule"`
	SweepSchedule  string  `yaml:"sweep_schedule"`
	SweepGrace     int     `yaml:"sweep_grace"` // seconds
	SweepBatch     int     `yaml:"sweep_batch"`
	PackageDays    int     `yaml:"package_days"`
	CodePrefix     string  `yaml:"code_prefix"`
}

// AmountScale is the number of decimal places money is rounded to. An
// explicit 0 rounds to whole units.
func (r referral) AmountScale() int32 {
	if r.Scale == nil {
		return 2
	}
	return *r.Scale
}

type notify struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

type dgraph struct {
	RPCAddr string `yaml:"rpc_addr"`
}

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	unmarshal("server", &Server, true)
	unmarshal("mysql", &MySql, true)
	unmarshal("referral", &Referral, true)
	unmarshal("notify", &Notify, false)
	unmarshal("dgraph", &Dgraph, false)

	applyEnv()
	applyDefaults()
}

func unmarshal(name string, out interface{}, required bool) {
	v := viper.New()
	v.SetConfigName(name)
	v.AddConfigPath(confPath)
	err := v.ReadInConfig() // Find and read the config file
	if err != nil {         // Handle errors reading the config file
		if !required {
			log.Warnf("skip optional config %s: %v", name, err)
			return
		}
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}

	err = v.Unmarshal(out, func(config *mapstructure.DecoderConfig) {
		config.TagName = "yaml"
	})
	if err != nil {
		panic(fmt.Errorf("Fatal error unmarshal config file: %s \n", err))
	}
}

func applyEnv() {
	if pw := os.Getenv("MYSQL_PASSWORD"); pw != "" {
		MySql.Password = pw
	}
	if token := os.Getenv("ADMIN_TOKEN"); token != "" {
		Server.AdminToken = token
	}
	if secret := os.Getenv("NOTIFY_SECRET"); secret != "" {
		Notify.Secret = secret
	}
}

func applyDefaults() {
	if MySql.Charset == "" {
		MySql.Charset = "utf8mb4"
	}
	if Referral.ChainSource == "" {
		Referral.ChainSource = "mysql"
	}
	if Referral.Timeout == 0 {
		Referral.Timeout = 10
	}
	if Referral.SweepGrace == 0 {
		Referral.SweepGrace = 60
	}
	if Referral.SweepBatch == 0 {
		Referral.SweepBatch = 100
	}
	if Referral.CodePrefix == "" {
		Referral.CodePrefix = "REF"
	}
}
