package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDalName = "mongo"

	// DefaultMongoDatabase is the database used when none is configured.
	DefaultMongoDatabase = "ticketpanel"

	guildsCollection  = "guilds"
	ticketsCollection = "tickets"
)

// guildDocument is a guild in the guilds collection, keyed by the guild ID.
type guildDocument struct {
	ID            string                `bson:"_id"`
	Panel         *entities.Panel       `bson:"panel,omitempty"`
	Config        *entities.GuildConfig `bson:"config,omitempty"`
	TicketCounter int64                 `bson:"ticket_counter"`
}

type mongoStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the database client.
	client *mongo.Client

	// db is the database holding the collections.
	db *mongo.Database
}

// NewMongoStore connects to MongoDB and makes sure the ticket indexes exist.
func NewMongoStore(ctx context.Context, l *slog.Logger, uri, database string) (Store, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}

	conn := &connection.MongoDB{ConnectionString: uri}
	client, err := conn.Connect(ctx)
	if err != nil {
		return nil, err
	}

	s := &mongoStore{
		l:      l.With(slog.String(logging.KeyDal, mongoDalName)),
		client: client,
		db:     client.Database(database),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s.l.Info("MongoDB store initialised", slog.String("database", database))
	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(ticketsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// One active ticket per member per guild. Closed tickets are deleted, so every stored ticket is active.
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "number", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("error creating ticket indexes: %w", err)
	}
	return nil
}

func (s *mongoStore) getGuild(ctx context.Context, guildID string) (*guildDocument, error) {
	doc := new(guildDocument)
	err := s.db.Collection(guildsCollection).FindOne(ctx, bson.M{"_id": guildID}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild: %w", err)
	}
	return doc, nil
}

func (s *mongoStore) LoadPanel(ctx context.Context, guildID string) (*entities.Panel, error) {
	defer monitoring.Observe(mongoDalName, "load_panel")()

	doc, err := s.getGuild(ctx, guildID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			monitoring.Failed(mongoDalName, "load_panel")
		}
		return nil, err
	}
	if doc.Panel == nil {
		return nil, ErrNotFound
	}

	p := doc.Panel
	p.GuildID = guildID
	p.TicketCounter = doc.TicketCounter
	if p.Options == nil {
		p.Options = make([]entities.TicketOption, 0)
	}
	return p, nil
}

func (s *mongoStore) SavePanel(ctx context.Context, panel *entities.Panel) error {
	defer monitoring.Observe(mongoDalName, "save_panel")()

	update := bson.M{
		"$set": bson.M{"panel": panel},
		"$max": bson.M{"ticket_counter": panel.TicketCounter},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.db.Collection(guildsCollection).UpdateOne(ctx, bson.M{"_id": panel.GuildID}, update, opts)
	if err != nil {
		monitoring.Failed(mongoDalName, "save_panel")
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}

func (s *mongoStore) NextTicketNumber(ctx context.Context, guildID string) (int64, error) {
	defer monitoring.Observe(mongoDalName, "next_ticket_number")()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	inc := func() (*guildDocument, error) {
		doc := new(guildDocument)
		err := s.db.Collection(guildsCollection).FindOneAndUpdate(ctx,
			bson.M{"_id": guildID},
			bson.M{"$inc": bson.M{"ticket_counter": 1}},
			opts,
		).Decode(doc)
		return doc, err
	}

	doc, err := inc()
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced to create the guild document, it exists now.
		doc, err = inc()
	}
	if err != nil {
		monitoring.Failed(mongoDalName, "next_ticket_number")
		return 0, fmt.Errorf("error incrementing ticket counter: %w", err)
	}
	return doc.TicketCounter, nil
}

func (s *mongoStore) GetGuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	defer monitoring.Observe(mongoDalName, "get_guild_config")()

	doc, err := s.getGuild(ctx, guildID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			monitoring.Failed(mongoDalName, "get_guild_config")
		}
		return nil, err
	}
	if doc.Config == nil {
		return nil, ErrNotFound
	}

	doc.Config.GuildID = guildID
	return doc.Config, nil
}

func (s *mongoStore) SetGuildConfig(ctx context.Context, cfg *entities.GuildConfig) error {
	defer monitoring.Observe(mongoDalName, "set_guild_config")()

	opts := options.Update().SetUpsert(true)
	_, err := s.db.Collection(guildsCollection).UpdateOne(ctx,
		bson.M{"_id": cfg.GuildID},
		bson.M{"$set": bson.M{"config": cfg}},
		opts,
	)
	if err != nil {
		monitoring.Failed(mongoDalName, "set_guild_config")
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return nil
}

func (s *mongoStore) HasActiveTicket(ctx context.Context, userID, guildID string) (bool, error) {
	defer monitoring.Observe(mongoDalName, "has_active_ticket")()

	filter := bson.M{
		"guild_id": guildID,
		"user_id":  userID,
		"status": bson.M{"$in": bson.A{
			entities.TicketStatusOpen,
			entities.TicketStatusClaimed,
		}},
	}

	n, err := s.db.Collection(ticketsCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		monitoring.Failed(mongoDalName, "has_active_ticket")
		return false, fmt.Errorf("error checking active tickets: %w", err)
	}
	return n > 0, nil
}

func (s *mongoStore) AddTicket(ctx context.Context, ticket *entities.Ticket) error {
	defer monitoring.Observe(mongoDalName, "add_ticket")()

	_, err := s.db.Collection(ticketsCollection).InsertOne(ctx, ticket)
	if err != nil {
		monitoring.Failed(mongoDalName, "add_ticket")
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("channel %s user %s: %w", ticket.ChannelID, ticket.UserID, ErrDuplicateTicket)
		}
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (s *mongoStore) GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error) {
	defer monitoring.Observe(mongoDalName, "get_ticket")()

	t := new(entities.Ticket)
	err := s.db.Collection(ticketsCollection).FindOne(ctx, bson.M{"channel_id": channelID}).Decode(t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		monitoring.Failed(mongoDalName, "get_ticket")
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

func (s *mongoStore) ClaimTicket(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	defer monitoring.Observe(mongoDalName, "claim_ticket")()

	filter := bson.M{
		"channel_id": channelID,
		"status":     entities.TicketStatusOpen,
	}
	update := bson.M{"$set": bson.M{
		"status":     entities.TicketStatusClaimed,
		"claimed_by": actorID,
	}}

	t := new(entities.Ticket)
	err := s.db.Collection(ticketsCollection).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the ticket does not exist or it is no longer open.
		if _, err := s.GetTicket(ctx, channelID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyClaimed
	} else if err != nil {
		monitoring.Failed(mongoDalName, "claim_ticket")
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}
	return t, nil
}

func (s *mongoStore) RemoveTicket(ctx context.Context, channelID string) error {
	defer monitoring.Observe(mongoDalName, "remove_ticket")()

	res, err := s.db.Collection(ticketsCollection).DeleteOne(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		monitoring.Failed(mongoDalName, "remove_ticket")
		return fmt.Errorf("error removing ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) ListTickets(ctx context.Context, guildID string) ([]*entities.Ticket, error) {
	defer monitoring.Observe(mongoDalName, "list_tickets")()

	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cur, err := s.db.Collection(ticketsCollection).Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		monitoring.Failed(mongoDalName, "list_tickets")
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}

	tickets := make([]*entities.Ticket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return connection.Ping(ctx, s.client)
}

func (s *mongoStore) Close(ctx context.Context) error {
	s.l.Info("Disconnecting from MongoDB")
	return s.client.Disconnect(ctx)
}
