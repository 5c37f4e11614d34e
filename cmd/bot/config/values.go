package config

import (
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/transcripts"
)

const (
	// AppName is the name of the application.
	AppName = "ticketpanel"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvStoreDriver is the environment variable for the store backend.
	EnvStoreDriver = `STORE_DRIVER`

	// EnvStoreDsn is the environment variable for the file path or connection string of the store.
	EnvStoreDsn = `STORE_DSN`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoDatabase is the environment variable for the MongoDB database.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvAmqpUrl is the environment variable for the RabbitMQ URL. Events are only logged when it is empty.
	EnvAmqpUrl = `AMQP_URL`

	// EnvAmqpExchange is the environment variable for the RabbitMQ exchange.
	EnvAmqpExchange = `AMQP_EXCHANGE`

	// EnvMinioEndpoint is the environment variable for the transcript archive endpoint. Archiving is off when empty.
	EnvMinioEndpoint = `MINIO_ENDPOINT`

	// EnvMinioAccessKey is the environment variable for the transcript archive access key.
	EnvMinioAccessKey = `MINIO_ACCESS_KEY`

	// EnvMinioSecretKey is the environment variable for the transcript archive secret key.
	EnvMinioSecretKey = `MINIO_SECRET_KEY`

	// EnvMinioBucket is the environment variable for the transcript archive bucket.
	EnvMinioBucket = `MINIO_BUCKET`

	// EnvMinioUseSSL is the environment variable for whether the transcript archive is reached over TLS.
	EnvMinioUseSSL = `MINIO_USE_SSL`

	// EnvTicketsConfig is the environment variable for the path of the ticket policy file.
	EnvTicketsConfig = `TICKETS_CONFIG`

	// EnvFollowUpTimeout is the environment variable for how long to wait for a follow up message, e.g. "30s".
	EnvFollowUpTimeout = `FOLLOWUP_TIMEOUT`
)

const (
	defaultMonitoringPort = "8080"
	defaultMinioBucket    = "transcripts"
	defaultTicketsConfig  = "tickets.yaml"
)

// Values is the configuration of the bot.
type Values struct {
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// Store is how to open the store.
	Store dataaccess.Options

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// AmqpUrl is the URL of the RabbitMQ server.
	AmqpUrl string

	// AmqpExchange is the exchange events are published to.
	AmqpExchange string

	// Minio is the transcript archive. Nil when archiving is off.
	Minio *transcripts.MinioConfig

	// TicketsConfig is the path of the ticket policy file.
	TicketsConfig string

	// FollowUpTimeout is how long to wait for a follow up message.
	FollowUpTimeout time.Duration
}
