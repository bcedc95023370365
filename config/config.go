package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	App      App           `yaml:"app"`
	Server   Server        `yaml:"server"`
	DB       *sql.DB       `yaml:"db"`
	Queue    *RabbitMQ     `yaml:"rabbitmq"`
	Storage  *minio.Client `yaml:"storage"`
	Bucket   Bucket        `yaml:"bucket"`
	Auth     Auth          `yaml:"auth"`
	AI       AI            `yaml:"ai"`
	Pipeline Pipeline      `yaml:"pipeline"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort    string   `yaml:"http_port"`
	Workers     int      `yaml:"workers"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type RabbitMQ struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	Kind string `json:"kind"`
}

type Bucket struct {
	Name      string `yaml:"name"`
	PublicURL string `yaml:"public_url"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type AI struct {
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiModel       string `yaml:"gemini_model"`
	GroqAPIKey        string `yaml:"groq_api_key"`
	GroqModel         string `yaml:"groq_model"`
	GroqBaseURL       string `yaml:"groq_base_url"`
	ElevenAPIKey      string `yaml:"eleven_api_key"`
	ElevenVoiceID     string `yaml:"eleven_voice_id"`
	UnsplashAccessKey string `yaml:"unsplash_access_key"`
}

type Pipeline struct {
	WorkDir      string        `yaml:"work_dir"`
	FontPath     string        `yaml:"font_path"`
	StageTimeout time.Duration `yaml:"stage_timeout"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("r2.endpoint"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("r2.access_key_id"), viper.GetString("r2.secret_access_key"), ""),
		Secure: viper.GetBool("r2.secure"),
	})
	if err != nil {
		return nil, err
	}

	stageTimeout := viper.GetDuration("pipeline.stage_timeout")
	if stageTimeout <= 0 {
		stageTimeout = 2 * time.Minute
	}
	tokenTTL := viper.GetDuration("auth.token_ttl")
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort:    viper.GetString("server.port"),
			Workers:     viper.GetInt("server.workers"),
			CORSOrigins: viper.GetStringSlice("server.cors_origins"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
		Bucket: Bucket{
			Name:      viper.GetString("r2.bucket"),
			PublicURL: viper.GetString("r2.public_url"),
		},
		Auth: Auth{
			JWTSecret: viper.GetString("auth.jwt_secret"),
			TokenTTL:  tokenTTL,
		},
		AI: AI{
			GeminiAPIKey:      viper.GetString("ai.gemini_api_key"),
			GeminiModel:       viper.GetString("ai.gemini_model"),
			GroqAPIKey:        viper.GetString("ai.groq_api_key"),
			GroqModel:         viper.GetString("ai.groq_model"),
			GroqBaseURL:       viper.GetString("ai.groq_base_url"),
			ElevenAPIKey:      viper.GetString("ai.eleven_api_key"),
			ElevenVoiceID:     viper.GetString("ai.eleven_voice_id"),
			UnsplashAccessKey: viper.GetString("ai.unsplash_access_key"),
		},
		Pipeline: Pipeline{
			WorkDir:      viper.GetString("pipeline.work_dir"),
			FontPath:     viper.GetString("pipeline.font_path"),
			StageTimeout: stageTimeout,
		},
	}, nil
}
