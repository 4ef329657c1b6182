package config

// Config 配置主体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	DB          DBConfig          `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Logstash    LogstashConfig    `mapstructure:"logstash"`
	IM          IMConfig          `mapstructure:"im"`
	Verifier    VerifierConfig    `mapstructure:"verifier"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	KafkaPushIM KafkaPushConsumer `mapstructure:"kafka_push_consumer"`
	Cron        CronConfig        `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// LogstashConfig 远程日志
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// IMConfig 即时通讯核心配置
type IMConfig struct {
	// Admission reject_before_accept | accept_then_authenticate
	Admission       string `mapstructure:"admission"`
	AuthTimeout     int    `mapstructure:"auth_timeout"` // 秒
	OutboxSize      int    `mapstructure:"outbox_size"`
	MaxMessageSize  int64  `mapstructure:"max_message_size"`
	CloseSuperseded bool   `mapstructure:"close_superseded"`
	// MessageStore mysql | mongo
	MessageStore  string   `mapstructure:"message_store"`
	AllowedOrigin []string `mapstructure:"allowed_origin"`
}

// VerifierConfig 连接凭据校验
type VerifierConfig struct {
	// Mode jwt | remote
	Mode          string `mapstructure:"mode"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	CookieName    string `mapstructure:"cookie_name"`
	RemoteURL     string `mapstructure:"remote_url"`
	RemoteTimeout int    `mapstructure:"remote_timeout"` // 秒
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaPushConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// CronConfig 定时任务
type CronConfig struct {
	PresenceSync string `mapstructure:"presence_sync"`
}
