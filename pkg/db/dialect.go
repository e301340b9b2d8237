package db

import (
	"fmt"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/smallbiznis/stockledger/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect returns the gorm dialector for the configured database type.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dbCfg := FromAppConfig(cfg)
	switch dbCfg.Type {
	case "postgres":
		return postgres.Open(dbCfg.PostgresDSN()), nil
	case "mysql":
		return mysql.Open(dbCfg.MySQLDSN()), nil
	case "sqlite":
		return sqlite.Open(dbCfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbCfg.Type)
	}
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c Config) MySQLDSN() string {
	mc := gomysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
