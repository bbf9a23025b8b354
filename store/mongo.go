package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/models"
)

const (
	postsCollection = "posts"
	usersCollection = "users"
)

type postDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Text       string             `bson:"text"`
	Tags       []string           `bson:"tags"`
	ViewsCount int64              `bson:"viewsCount"`
	ImageURL   string             `bson:"imageUrl,omitempty"`
	User       primitive.ObjectID `bson:"user"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"fullName"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	AvatarURL    string             `bson:"avatarUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d postDocument) model() models.Post {
	return models.Post{
		ID:         d.ID.Hex(),
		Title:      d.Title,
		Text:       d.Text,
		Tags:       d.Tags,
		ViewsCount: d.ViewsCount,
		ImageURL:   d.ImageURL,
		UserID:     d.User.Hex(),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (d userDocument) model() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func sortDocument(s Sort) bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	field := string(s.Field)
	if field == "" {
		field = string(SortByCreatedAt)
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

// EnsureMongoIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users.email index: %w", err)
	}
	_, err = db.Collection(postsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "viewsCount", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}
	return nil
}

// MongoPostStore keeps posts in a MongoDB collection.
type MongoPostStore struct {
	posts  *mongo.Collection
	users  *mongo.Collection
	logger *zap.Logger
}

// NewMongoPostStore creates a post store over db.
func NewMongoPostStore(db *mongo.Database, logger *zap.Logger) *MongoPostStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoPostStore{
		posts:  db.Collection(postsCollection),
		users:  db.Collection(usersCollection),
		logger: logger,
	}
}

func (s *MongoPostStore) Find(ctx context.Context, q FindQuery) ([]models.Post, error) {
	opts := options.Find().SetSort(sortDocument(q.Sort))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.model())
	}
	if q.WithAuthors {
		s.resolveAuthors(ctx, posts)
	}
	return posts, nil
}

// IncrementViews uses findOneAndUpdate with $inc so the server applies the
// increment and returns the resulting document atomically.
func (s *MongoPostStore) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc postDocument
	err = s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"viewsCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	posts := []models.Post{doc.model()}
	s.resolveAuthors(ctx, posts)
	return &posts[0], nil
}

func (s *MongoPostStore) Insert(ctx context.Context, post *models.Post) error {
	author, err := primitive.ObjectIDFromHex(post.UserID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", post.UserID, err)
	}
	doc := postDocument{
		ID:         primitive.NewObjectID(),
		Title:      post.Title,
		Text:       post.Text,
		Tags:       post.Tags,
		ViewsCount: post.ViewsCount,
		ImageURL:   post.ImageURL,
		User:       author,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.CreatedAt,
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return err
	}
	post.ID = doc.ID.Hex()
	post.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *MongoPostStore) Replace(ctx context.Context, id string, fields PostFields) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	author, err := primitive.ObjectIDFromHex(fields.UserID)
	if err != nil {
		return 0, fmt.Errorf("invalid author id %q: %w", fields.UserID, err)
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     fields.Title,
		"text":      fields.Text,
		"imageUrl":  fields.ImageURL,
		"tags":      fields.Tags,
		"user":      author,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoPostStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoPostStore) resolveAuthors(ctx context.Context, posts []models.Post) {
	ids := authorIDs(posts)
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		s.logger.Warn("resolve post authors failed", zap.Int("authors", len(oids)), zap.Error(err))
		return
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		s.logger.Warn("decode post authors failed", zap.Error(err))
		return
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	attachAuthors(posts, users)
}

// MongoUserStore keeps users in a MongoDB collection.
type MongoUserStore struct {
	users *mongo.Collection
}

// NewMongoUserStore creates a user store over db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{users: db.Collection(usersCollection)}
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	*user = doc.model()
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u := doc.model()
	return &u, nil
}
