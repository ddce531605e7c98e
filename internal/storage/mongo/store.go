// Package mongo stores habitpal data in MongoDB. Accounts embed their pet; goals embed their
// plan and history. Txn needs a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/julianstephens/habitpal/internal/constants"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

// schemaVersion is bumped when the document layout changes.
const schemaVersion = 1

const schemaMetaID = "schema"

type Store struct {
	*repo

	uri    string
	dbName string
	client *mongo.Client
}

var _ storage.Provider = (*Store)(nil)

func New(uri string) *Store {
	return &Store{uri: uri}
}

func (s *Store) open(ctx context.Context) error {
	cs, err := connstring.ParseAndValidate(s.uri)
	if err != nil {
		return fmt.Errorf("invalid MongoDB connection string: %w", err)
	}
	s.dbName = cs.Database
	if s.dbName == "" {
		s.dbName = constants.AppName
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	s.client = client
	s.repo = newRepo(client.Database(s.dbName), nil)
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.client == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.accounts, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.accounts, mongo.IndexModel{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.goals, mongo.IndexModel{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}

	_, err := s.meta.UpdateOne(ctx,
		bson.M{"_id": schemaMetaID},
		bson.M{"$max": bson.M{"version": schemaVersion}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logger.Info("MongoDB storage initialized", "database", s.dbName, "version", schemaVersion)
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	if err := s.open(ctx); err != nil {
		return err
	}

	current, latest, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case current == 0:
		return fmt.Errorf("storage not initialized, run 'habitpal init' first")
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade the application", current, latest)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Txn runs fn inside a session transaction. The driver retries fn on transient errors such as
// write conflicts, so fn must derive everything it writes from what it reads.
func (s *Store) Txn(ctx context.Context, fn func(storage.Repo) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(newRepo(s.db, session))
	})
	return err
}

func (s *Store) SchemaVersion(ctx context.Context) (int, int, error) {
	var meta metaDoc
	err := s.meta.FindOne(ctx, bson.M{"_id": schemaMetaID}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, schemaVersion, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return meta.Version, schemaVersion, nil
}

func (s *Store) GetConfigPath() string {
	return "mongodb"
}

// repo implements storage.Repo. Inside Txn it carries the session so every call joins the
// transaction whatever context the caller passes.
type repo struct {
	db       *mongo.Database
	accounts *mongo.Collection
	goals    *mongo.Collection
	meta     *mongo.Collection
	session  mongo.Session
}

var _ storage.Repo = (*repo)(nil)

func newRepo(db *mongo.Database, session mongo.Session) *repo {
	return &repo{
		db:       db,
		accounts: db.Collection(constants.CollectionAccounts),
		goals:    db.Collection(constants.CollectionGoals),
		meta:     db.Collection(constants.CollectionMeta),
		session:  session,
	}
}

func (r *repo) bind(ctx context.Context) context.Context {
	if r.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, r.session)
}

// Accounts

func (r *repo) CreateAccount(ctx context.Context, account models.Account, pet models.PetState) error {
	_, err := r.accounts.InsertOne(r.bind(ctx), toAccountDoc(account, pet))
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Invalid("name", "account %q already exists", account.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *repo) findAccount(ctx context.Context, filter bson.M, label string) (accountDoc, error) {
	var doc accountDoc
	err := r.accounts.FindOne(r.bind(ctx), filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return accountDoc{}, apperr.NotFound("account", label)
	}
	if err != nil {
		return accountDoc{}, fmt.Errorf("failed to load account: %w", err)
	}
	return doc, nil
}

func (r *repo) GetAccount(ctx context.Context, id string) (models.Account, error) {
	doc, err := r.findAccount(ctx, bson.M{"_id": id}, id)
	if err != nil {
		return models.Account{}, err
	}
	return doc.model(), nil
}

func (r *repo) GetAccountByName(ctx context.Context, name string) (models.Account, error) {
	doc, err := r.findAccount(ctx, bson.M{"name": name}, name)
	if err != nil {
		return models.Account{}, err
	}
	return doc.model(), nil
}

func (r *repo) GetAccountByToken(ctx context.Context, token string) (models.Account, error) {
	doc, err := r.findAccount(ctx, bson.M{"token": token}, "")
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return models.Account{}, err
	}
	return doc.model(), nil
}

func (r *repo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	cur, err := r.accounts.Find(r.bind(ctx), bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	var docs []accountDoc
	if err := cur.All(r.bind(ctx), &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.model())
	}
	return accounts, nil
}

// Reward ledger

func (r *repo) ApplyDelta(ctx context.Context, accountID string, delta int) (int, error) {
	var doc accountDoc
	err := r.accounts.FindOneAndUpdate(r.bind(ctx),
		bson.M{"_id": accountID, "coins": bson.M{"$gte": -delta}},
		bson.M{"$inc": bson.M{"coins": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.Coins, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to apply coin delta: %w", err)
	}

	n, err := r.accounts.CountDocuments(r.bind(ctx), bson.M{"_id": accountID})
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("account", accountID)
	}
	return 0, apperr.ErrInsufficientFunds
}

// Goals

func (r *repo) CreateGoal(ctx context.Context, goal models.Goal) error {
	if _, err := r.goals.InsertOne(r.bind(ctx), toGoalDoc(goal)); err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (r *repo) GetGoal(ctx context.Context, accountID, goalID string) (models.Goal, error) {
	var doc goalDoc
	err := r.goals.FindOne(r.bind(ctx), bson.M{"_id": goalID, "account_id": accountID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Goal{}, apperr.NotFound("goal", goalID)
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("failed to load goal: %w", err)
	}
	return doc.model(), nil
}

func (r *repo) ListGoals(ctx context.Context, accountID string) ([]models.Goal, error) {
	cur, err := r.goals.Find(r.bind(ctx), bson.M{"account_id": accountID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	var docs []goalDoc
	if err := cur.All(r.bind(ctx), &docs); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}

	goals := make([]models.Goal, 0, len(docs))
	for _, d := range docs {
		goals = append(goals, d.model())
	}
	return goals, nil
}

func (r *repo) UpdateGoal(ctx context.Context, goal models.Goal) error {
	res, err := r.goals.UpdateOne(r.bind(ctx),
		bson.M{"_id": goal.ID, "account_id": goal.AccountID},
		bson.M{"$set": bson.M{
			"title":       goal.Title,
			"description": goal.Description,
			"frequency":   toFrequencyDoc(goal.Frequency),
			"plan":        toPlanDocs(goal.Plan),
			"updated_at":  dt(goal.UpdatedAt),
		}})
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("goal", goal.ID)
	}
	return nil
}

func (r *repo) DeleteGoal(ctx context.Context, accountID, goalID string) error {
	res, err := r.goals.DeleteOne(r.bind(ctx), bson.M{"_id": goalID, "account_id": accountID})
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("goal", goalID)
	}
	return nil
}

// History store

func (r *repo) LoadHistory(ctx context.Context, goalID string) (progress.History, error) {
	var doc struct {
		History []string `bson:"history"`
	}
	err := r.goals.FindOne(r.bind(ctx), bson.M{"_id": goalID},
		options.FindOne().SetProjection(bson.M{"history": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return progress.NewHistory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return historyOf(doc.History), nil
}

func (r *repo) SaveHistory(ctx context.Context, goalID string, history progress.History) error {
	res, err := r.goals.UpdateOne(r.bind(ctx), bson.M{"_id": goalID}, bson.M{"$set": bson.M{"history": history.Strings()}})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("goal", goalID)
	}
	return nil
}

// Pet state store

func (r *repo) LoadPet(ctx context.Context, accountID string) (models.PetState, error) {
	var doc struct {
		Pet petDoc `bson:"pet"`
	}
	err := r.accounts.FindOne(r.bind(ctx), bson.M{"_id": accountID},
		options.FindOne().SetProjection(bson.M{"pet": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PetState{}, apperr.NotFound("pet", accountID)
	}
	if err != nil {
		return models.PetState{}, fmt.Errorf("failed to load pet: %w", err)
	}
	return doc.Pet.model(), nil
}

func (r *repo) SavePet(ctx context.Context, accountID string, pet models.PetState) error {
	res, err := r.accounts.UpdateOne(r.bind(ctx), bson.M{"_id": accountID}, bson.M{"$set": bson.M{"pet": toPetDoc(pet)}})
	if err != nil {
		return fmt.Errorf("failed to save pet: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("pet", accountID)
	}
	return nil
}
