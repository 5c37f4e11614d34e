package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess/monitoring"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoBackendName = "mongo"

// MongoDB holds the details needed to connect to a MongoDB deployment. Either ConnectionString is set, or it is
// built from the other fields.
type MongoDB struct {
	ConnectionString string
	Username         string
	Password         string
	Host             string
	Port             string
	Args             string

	// SRV is whether to use the mongodb+srv scheme when building the connection string.
	SRV bool
}

// GenerateConnectionString builds ConnectionString from the individual fields.
func (m *MongoDB) GenerateConnectionString() {
	u := url.URL{
		Scheme: "mongodb",
		Host:   m.Host,
		Path:   "/",
	}
	if m.SRV {
		u.Scheme = "mongodb+srv"
	}
	if m.Port != "" && !m.SRV {
		u.Host += ":" + m.Port
	}

	switch {
	case m.Username != "" && m.Password != "":
		u.User = url.UserPassword(m.Username, m.Password)
	case m.Username != "":
		u.User = url.User(m.Username)
	}
	u.RawQuery = m.Args

	m.ConnectionString = u.String()
}

// Connect connects to MongoDB and checks the deployment answers.
func (m *MongoDB) Connect(ctx context.Context) (*mongo.Client, error) {
	if m.ConnectionString == "" {
		if m.Host == "" {
			return nil, errors.New("mongo host is not set")
		}
		m.GenerateConnectionString()
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		// The client is unusable, nothing useful can be done with a disconnect error here.
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// Ping checks that the primary of the deployment is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	defer monitoring.Observe(mongoBackendName, "ping")()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		monitoring.Failed(mongoBackendName, "ping")
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}
