// Package config loads this module's single-process configuration:
// one YAML file plus environment overrides, bound with viper the same
// way the teacher's per-service config packages do, collapsed to one
// service's shape since this module has no gate/hall/user/march split
// to dispatch across.
package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Conf is the process-wide loaded configuration, set once by Load.
var Conf *Config

type Config struct {
	AppName string  `mapstructure:"appName"`
	Log     LogConf `mapstructure:"log"`

	HttpPort   int `mapstructure:"httpPort"`
	WsPort     int `mapstructure:"wsPort"`
	MetricPort int `mapstructure:"metricPort"`

	Room     RoomConf     `mapstructure:"room"`
	Ticket   TicketConf   `mapstructure:"ticket"`
	Storage  StorageConf  `mapstructure:"storage"`
	Database DatabaseConf `mapstructure:"database"`
	Debug    DebugConf    `mapstructure:"debug"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// RoomConf bounds how long a pending room waits for its fourth seat and
// how long a disconnected player's seat is held open for reconnection.
type RoomConf struct {
	TTLSeconds            int `mapstructure:"ttlSeconds"`
	ReconnectGraceSeconds int `mapstructure:"reconnectGraceSeconds"`
}

// TicketConf configures the HMAC secret and lifetime for every signed
// game/room ticket this process mints.
type TicketConf struct {
	Secret    string `mapstructure:"secret"`
	TTLSeconds int   `mapstructure:"ttlSeconds"`
}

// StorageConf selects and configures the persistence backend: "file"
// needs only Dir, "mongo" needs the Database.MongoConf block too.
type StorageConf struct {
	Backend string `mapstructure:"backend"` // "file" or "mongo"
	Dir     string `mapstructure:"dir"`
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

// DebugConf gates ambient operability surfaces that aren't part of the
// spec itself, only mounted when explicitly turned on.
type DebugConf struct {
	Statsviz bool `mapstructure:"statsviz"`
}

// Load reads configFile plus environment overrides into Conf. Unset
// env vars fall back to the file; dots in a key become underscores for
// its env form (e.g. ticket.secret -> TICKET_SECRET), matching the
// teacher's convention.
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	Conf = &cfg

	// Hot reload only touches the fields safe to change under load:
	// log level and room/reconnect windows. Everything else (ports,
	// secrets, storage backend) takes a restart.
	v.OnConfigChange(func(in fsnotify.Event) {
		var reloaded Config
		if err := v.Unmarshal(&reloaded); err != nil {
			return
		}
		Conf.Log.Level = reloaded.Log.Level
		Conf.Room = reloaded.Room
	})
	v.WatchConfig()

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("httpPort", 8080)
	v.SetDefault("wsPort", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("room.ttlSeconds", 600)
	v.SetDefault("room.reconnectGraceSeconds", 30)
	v.SetDefault("ticket.ttlSeconds", 3600)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "./data")
}
