package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/transcripts"
	"github.com/joho/godotenv"
)

// ErrIncomplete is returned when a required environment variable is missing.
var ErrIncomplete = errors.New("not all required environment variables have been provided")

// LoadDotEnv loads the variables of the files into the environment. Variables that are already set win. Missing files
// are skipped.
func LoadDotEnv(l *slog.Logger, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				l.Debug("No env file found", slog.String("file", f))
				continue
			}
			return fmt.Errorf("error loading env file %s: %w", f, err)
		}
		l.Debug("Loaded env file", slog.String("file", f))
	}
	return nil
}

// Parse reads the configuration from the environment.
func Parse(l *slog.Logger) (*Values, error) {
	v := &Values{
		BotToken:       os.Getenv(EnvBotToken),
		ApplicationId:  os.Getenv(EnvApplicationId),
		MonitoringPort: os.Getenv(EnvMonitoringPort),
		AmqpUrl:        os.Getenv(EnvAmqpUrl),
		AmqpExchange:   os.Getenv(EnvAmqpExchange),
		TicketsConfig:  os.Getenv(EnvTicketsConfig),
		Store: dataaccess.Options{
			Driver:        dataaccess.Driver(os.Getenv(EnvStoreDriver)),
			DSN:           os.Getenv(EnvStoreDsn),
			MongoURI:      os.Getenv(EnvMongoUri),
			MongoDatabase: os.Getenv(EnvMongoDatabase),
		},
	}

	if v.BotToken == "" || v.ApplicationId == "" {
		l.Error("Not all required environment variables have been provided",
			slog.String(logging.KeyError, "Incomplete configuration"),
			slog.Bool(EnvBotToken, v.BotToken != ""),
			slog.Bool(EnvApplicationId, v.ApplicationId != ""),
		)
		return nil, ErrIncomplete
	}

	if v.MonitoringPort == "" {
		// Default to 8080 if not provided.
		v.MonitoringPort = defaultMonitoringPort
		l.Info("No monitoring port provided in environment, defaulting to "+defaultMonitoringPort, slog.String("key", EnvMonitoringPort))
	}

	if v.AmqpExchange == "" {
		v.AmqpExchange = events.DefaultExchange
	}

	if v.TicketsConfig == "" {
		v.TicketsConfig = defaultTicketsConfig
	}

	if v.Store.Driver == "" && v.Store.MongoURI != "" {
		// A Mongo URI on its own selects the mongo store.
		v.Store.Driver = dataaccess.DriverMongo
	}

	v.FollowUpTimeout = followup.DefaultTimeout
	if s := os.Getenv(EnvFollowUpTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q", EnvFollowUpTimeout, s)
		}
		v.FollowUpTimeout = d
	}

	if endpoint := os.Getenv(EnvMinioEndpoint); endpoint != "" {
		v.Minio = &transcripts.MinioConfig{
			Endpoint:  endpoint,
			AccessKey: os.Getenv(EnvMinioAccessKey),
			SecretKey: os.Getenv(EnvMinioSecretKey),
			Bucket:    os.Getenv(EnvMinioBucket),
		}
		if v.Minio.Bucket == "" {
			v.Minio.Bucket = defaultMinioBucket
		}
		if s := os.Getenv(EnvMinioUseSSL); s != "" {
			useSSL, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", EnvMinioUseSSL, s, err)
			}
			v.Minio.UseSSL = useSSL
		}
	}

	l.Debug("All required environment variables have been provided",
		slog.String("store", string(v.Store.Driver)),
		slog.Bool("amqp", v.AmqpUrl != ""),
		slog.Bool("archive", v.Minio != nil),
	)
	return v, nil
}
