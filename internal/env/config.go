package env

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration read from the environment.
type Config struct {
	ServerPort string        `mapstructure:"SERVER_PORT"`
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`

	NominatimURL       string `mapstructure:"NOMINATIM_URL"`
	NominatimUserAgent string `mapstructure:"NOMINATIM_USER_AGENT"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioRegion    string `mapstructure:"MINIO_REGION"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	KafkaBroker      string `mapstructure:"KAFKA_BROKER"`
	KafkaDeviceTopic string `mapstructure:"KAFKA_DEVICE_TOPIC"`
	KafkaNotifyTopic string `mapstructure:"KAFKA_NOTIFY_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`
}

// KafkaBrokers splits the comma separated KAFKA_BROKER value.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBroker, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func LoadConfig() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("SESSION_TTL", 15*time.Minute)
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "foodshare-nominatim-client/1.0")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "food-posts")
	v.SetDefault("MINIO_REGION", "")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("KAFKA_BROKER", "localhost:9092")
	v.SetDefault("KAFKA_DEVICE_TOPIC", "device-locations")
	v.SetDefault("KAFKA_NOTIFY_TOPIC", "food-post-events")
	v.SetDefault("KAFKA_GROUP_ID", "foodshare-indexer")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
