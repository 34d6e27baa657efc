package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jane4246/coffee-advisory/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoStorage struct {
	client *mongo.Client
	clock  *clock

	UserCollection      *mongo.Collection
	DiagnosesCollection *mongo.Collection
	TipsCollection      *mongo.Collection
	ContactsCollection  *mongo.Collection
}

// OpenMongo connects, pings and prepares indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStorage, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStorage{
		client:              client,
		clock:               newClock(),
		UserCollection:      db.Collection("users"),
		DiagnosesCollection: db.Collection("diagnoses"),
		TipsCollection:      db.Collection("farming_tips"),
		ContactsCollection:  db.Collection("emergency_contacts"),
	}

	if _, err := s.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create username index: %w", err)
	}
	if _, err := s.DiagnosesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create diagnoses index: %w", err)
	}

	if err := s.resumeClock(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// OptionsFindLatest sorts newest first, breaking timestamp ties by sequence.
func OptionsFindLatest(limit int64) *options.FindOptions {
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func optionsInsertionOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
}

func (s *MongoStorage) resumeClock(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{s.DiagnosesCollection, s.TipsCollection, s.ContactsCollection} {
		var last struct {
			CreatedAt time.Time `bson:"createdAt"`
			Seq       int64     `bson:"seq"`
		}
		opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
		err := coll.FindOne(ctx, bson.M{}, opts).Decode(&last)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resume clock from %s: %w", coll.Name(), err)
		}
		s.clock.resume(last.CreatedAt, last.Seq)
	}
	return nil
}

func (s *MongoStorage) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *MongoStorage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *MongoStorage) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	if _, err := s.UserCollection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *MongoStorage) CreateDiagnosis(ctx context.Context, d models.Diagnosis) (models.Diagnosis, error) {
	d.ID = uuid.NewString()
	d.CreatedAt, d.Seq = s.clock.next()
	if _, err := s.DiagnosesCollection.InsertOne(ctx, d); err != nil {
		return models.Diagnosis{}, fmt.Errorf("insert diagnosis: %w", err)
	}
	return d, nil
}

func (s *MongoStorage) GetDiagnoses(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	cursor, err := s.DiagnosesCollection.Find(ctx, filter, OptionsFindLatest(0))
	if err != nil {
		return nil, fmt.Errorf("find diagnoses: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Diagnosis{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode diagnoses: %w", err)
	}
	return out, nil
}

func (s *MongoStorage) GetDiagnosis(ctx context.Context, id string) (models.Diagnosis, error) {
	var d models.Diagnosis
	err := s.DiagnosesCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Diagnosis{}, ErrNotFound
	}
	return d, err
}

func (s *MongoStorage) GetFarmingTips(ctx context.Context, season string) ([]models.FarmingTip, error) {
	filter := bson.M{}
	if season != "" {
		filter["season"] = season
	}
	cursor, err := s.TipsCollection.Find(ctx, filter, optionsInsertionOrder())
	if err != nil {
		return nil, fmt.Errorf("find tips: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.FarmingTip{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tips: %w", err)
	}
	return out, nil
}

func (s *MongoStorage) CreateFarmingTip(ctx context.Context, t models.FarmingTip) (models.FarmingTip, error) {
	t.ID = uuid.NewString()
	t.CreatedAt, t.Seq = s.clock.next()
	if _, err := s.TipsCollection.InsertOne(ctx, t); err != nil {
		return models.FarmingTip{}, fmt.Errorf("insert tip: %w", err)
	}
	return t, nil
}

func (s *MongoStorage) GetEmergencyContacts(ctx context.Context) ([]models.EmergencyContact, error) {
	cursor, err := s.ContactsCollection.Find(ctx, bson.M{"isActive": "true"}, optionsInsertionOrder())
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.EmergencyContact{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return out, nil
}

func (s *MongoStorage) CreateEmergencyContact(ctx context.Context, c models.EmergencyContact) (models.EmergencyContact, error) {
	c.ID = uuid.NewString()
	if c.IsActive == "" {
		c.IsActive = "true"
	}
	_, c.Seq = s.clock.next()
	if _, err := s.ContactsCollection.InsertOne(ctx, c); err != nil {
		return models.EmergencyContact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
