// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/defsub/reel"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

type BucketConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	ObjectPrefix    string
	UseSSL          bool
	PublicURL       string
	URLExpiration   time.Duration
}

type DatabaseConfig struct {
	Driver  string
	Source  string
	LogMode bool
}

// GormConfig returns the gorm settings shared by every store. Tables are
// singular to match databases created by earlier releases.
func (c DatabaseConfig) GormConfig() *gorm.Config {
	var glog logger.Interface
	if c.LogMode == false {
		glog = logger.Discard
	} else {
		glog = logger.Default
	}
	return &gorm.Config{
		Logger:         glog,
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}
}

type TokenConfig struct {
	Issuer string
	Age    time.Duration
	Secret string
}

type AuthConfig struct {
	SessionAge        time.Duration
	SecureCookies     bool
	MinPasswordLength int
	AccessToken       TokenConfig
}

type CatalogConfig struct {
	KeyLength           int
	KeyAttempts         int
	SuggestLimit        int
	SearchLimit         int
	HistoryLimit        int
	ProfileHistoryLimit int
	RecentLimit         int
	DefaultPoster       string
	BackfillInterval    time.Duration
	BackfillBatch       int
}

type CommentConfig struct {
	MaxLength  int
	ListLimit  int
	RateLimit  int
	RateWindow time.Duration
}

type StorageConfig struct {
	Backend   string
	Dir       string
	URLPrefix string
	MaxSize   int64
	Bucket    BucketConfig
}

type SearchConfig struct {
	BleveDir        string
	ReindexInterval time.Duration
}

type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level  string
	Format string
}

type SessionConfig struct {
	PurgeInterval time.Duration
}

type ServerConfig struct {
	Listen string
	URL    string
}

type Config struct {
	Auth    AuthConfig
	Catalog CatalogConfig
	Comment CommentConfig
	DB      DatabaseConfig
	Log     LogConfig
	Redis   RedisConfig
	Search  SearchConfig
	Server  ServerConfig
	Session SessionConfig
	Storage StorageConfig
}

func configDefaults(v *viper.Viper) {
	v.SetDefault("Auth.SessionAge", "720h") // 30 days
	v.SetDefault("Auth.SecureCookies", "true")
	v.SetDefault("Auth.MinPasswordLength", "6")
	v.SetDefault("Auth.AccessToken.Issuer", reel.AppName)
	v.SetDefault("Auth.AccessToken.Age", "4h")

	v.SetDefault("Catalog.KeyLength", "6")
	v.SetDefault("Catalog.KeyAttempts", "100")
	v.SetDefault("Catalog.SuggestLimit", "10")
	v.SetDefault("Catalog.SearchLimit", "10")
	v.SetDefault("Catalog.HistoryLimit", "100")
	v.SetDefault("Catalog.ProfileHistoryLimit", "20")
	v.SetDefault("Catalog.RecentLimit", "5")
	v.SetDefault("Catalog.DefaultPoster", "/static/poster.svg")
	v.SetDefault("Catalog.BackfillInterval", "1h")
	v.SetDefault("Catalog.BackfillBatch", "100")

	v.SetDefault("Comment.MaxLength", "1000")
	v.SetDefault("Comment.ListLimit", "100")
	v.SetDefault("Comment.RateLimit", "10")
	v.SetDefault("Comment.RateWindow", "1m")

	v.SetDefault("DB.Driver", "sqlite3")
	v.SetDefault("DB.Source", "reel.db")
	v.SetDefault("DB.LogMode", "false")

	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Format", "text")

	v.SetDefault("Search.BleveDir", ".")
	v.SetDefault("Search.ReindexInterval", "24h")

	v.SetDefault("Server.Listen", "127.0.0.1:3000")
	v.SetDefault("Server.URL", "https://example.com") // w/o trailing slash

	v.SetDefault("Session.PurgeInterval", "6h")

	v.SetDefault("Storage.Backend", StorageLocal)
	v.SetDefault("Storage.Dir", "uploads")
	v.SetDefault("Storage.URLPrefix", "/uploads")
	v.SetDefault("Storage.MaxSize", 2<<30) // 2 GiB
	v.SetDefault("Storage.Bucket.UseSSL", "true")
	v.SetDefault("Storage.Bucket.URLExpiration", "72h")
}

// envOverrides binds the environment variables used by container
// deployments.
func envOverrides(v *viper.Viper) {
	v.BindEnv("DB.Source", "DATABASE_URL")
	v.BindEnv("Auth.AccessToken.Secret", "SECRET_KEY")
	v.BindEnv("Redis.URL", "REDIS_URL")
}

func readConfig(v *viper.Viper) (*Config, error) {
	var config Config
	var pathRegexp = regexp.MustCompile(`(file|dir|source)$`)
	var urlRegexp = regexp.MustCompile(`^[a-z0-9]+://|^file:|:memory:|@|=`)
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// defaults and environment only
		err = nil
	}
	dir := filepath.Dir(v.ConfigFileUsed())
	for _, k := range v.AllKeys() {
		if pathRegexp.MatchString(k) {
			val, ok := v.Get(k).(string)
			if !ok || val == "" || urlRegexp.MatchString(val) {
				continue
			}
			if strings.HasPrefix(val, "/") == false {
				val = fmt.Sprintf("%s/%s", dir, val)
				v.Set(k, val)
			}
		}
	}
	if err == nil {
		err = v.Unmarshal(&config)
	}
	return &config, err
}

func TestConfig() (*Config, error) {
	v := viper.New()
	configDefaults(v)
	v.Set("Auth.SecureCookies", false)
	v.Set("Auth.AccessToken.Secret", "test-secret")
	testDir := os.Getenv("TEST_CONFIG")
	if testDir == "" {
		testDir = os.TempDir()
	} else {
		v.SetConfigFile(filepath.Join(testDir, "test.yaml"))
	}
	v.SetDefault("DB.Source", filepath.Join(testDir, "reel.db"))
	return readConfig(v)
}

var configFile, configPath, configName string

func SetConfigFile(path string) {
	configFile = path
}

func AddConfigPath(path string) {
	configPath = path
}

func SetConfigName(name string) {
	configName = name
}

func loadEnv() {
	// a missing .env is normal
	_ = godotenv.Load()
}

func GetConfig() (*Config, error) {
	loadEnv()
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if configName != "" {
		v.SetConfigName(configName)
	}
	configDefaults(v)
	envOverrides(v)
	return readConfig(v)
}

func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	configDefaults(v)
	envOverrides(v)
	return readConfig(v)
}
