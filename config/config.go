package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Store
	Postgres
	Mongo
	Media
	MinIO
	Auth
	Feed
	HTTPServer
}

type Store struct {
	Driver string `env:"STORE_DRIVER" env-default:"postgres"`
}

type Postgres struct {
	User       string        `env:"POSTGRES_USER" env-default:"postgres"`
	Pass       string        `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	Host       string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port       string        `env:"POSTGRES_PORT" env-default:"5432"`
	DB         string        `env:"POSTGRES_DB" env-default:"feed"`
	Timeout    time.Duration `env:"POSTGRES_TIMEOUT" env-default:"5s"`
	Migrations string        `env:"POSTGRES_MIGRATIONS" env-default:"./migrations"`
}

type Mongo struct {
	URI      string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string        `env:"MONGO_DATABASE" env-default:"feed"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT" env-default:"5s"`
}

type Media struct {
	Driver string `env:"MEDIA_DRIVER" env-default:"local"`
	// Root is the directory the image directory lives in; references are resolved against it.
	Root string `env:"MEDIA_ROOT" env-default:"."`
	// Dir is both the first segment of every image reference and the URL prefix images are served under.
	Dir string `env:"MEDIA_DIR" env-default:"images"`
}

type MinIO struct {
	User   string `env:"MINIO_USER" env-default:"minioadmin"`
	Pass   string `env:"MINIO_PASSWORD" env-default:"minioadmin"`
	Host   string `env:"MINIO_HOST" env-default:"localhost"`
	Port   string `env:"MINIO_PORT" env-default:"9000"`
	Bucket string `env:"MINIO_BUCKET" env-default:"feed"`
	Secure bool   `env:"MINIO_SECURE" env-default:"false"`
}

type Auth struct {
	JWTSecret  string        `env:"AUTH_JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" env-default:"10h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" env-default:"12"`
}

type Feed struct {
	DefaultPage    int `env:"FEED_DEFAULT_PAGE" env-default:"1"`
	DefaultPerPage int `env:"FEED_DEFAULT_PER_PAGE" env-default:"2"`
	MaxPerPage     int `env:"FEED_MAX_PER_PAGE" env-default:"100"`
}

type HTTPServer struct {
	BindAddress     string        `env:"BIND_ADDRESS" env-default:"localhost"`
	BindPort        string        `env:"BIND_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"15s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s"`
	MaxUploadSize   int64         `env:"HTTP_MAX_UPLOAD_SIZE" env-default:"10485760"`
}

// New reads env into the environment (overriding it) and then parses the environment.
// A missing env file is not an error.
func New(env string) (*Config, error) {
	conf := &Config{}

	if err := godotenv.Overload(env); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Overload: %v", err)
	}

	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("cleanenv.Readenv: %v", err)
	}

	return conf, nil
}
