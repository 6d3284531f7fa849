package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"
)

type accountDoc struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty"`
	Email    string               `bson:"email"`
	Name     string               `bson:"name"`
	Password string               `bson:"password"`
	Posts    []primitive.ObjectID `bson:"posts"`
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImageURL  string             `bson:"imageUrl"`
	Creator   primitive.ObjectID `bson:"creator"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type mongoRepository struct {
	client   *mongo.Client
	accounts *mongo.Collection
	posts    *mongo.Collection
}

func New(conf config.Mongo) (*mongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("client.Ping: %v", err)
	}

	db := client.Database(conf.Database)
	mr := &mongoRepository{
		client:   client,
		accounts: db.Collection("users"),
		posts:    db.Collection("posts"),
	}

	_, err = mr.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create email index: %v", err)
	}
	log.Println("[MONGO] connected to", conf.Database)

	return mr, nil
}

func (mr *mongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mr.client.Disconnect(ctx)
}

func (mr *mongoRepository) CreateAccount(ctx context.Context, email, name, passwordHash string) (*model.Account, error) {
	doc := accountDoc{
		ID:       primitive.NewObjectID(),
		Email:    email,
		Name:     name,
		Password: passwordHash,
		Posts:    []primitive.ObjectID{},
	}
	if _, err := mr.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("email %q: %w", email, repository.ErrDuplicate)
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (mr *mongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return mr.findAccount(ctx, bson.M{"_id": oid})
}

func (mr *mongoRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return mr.findAccount(ctx, bson.M{"email": email})
}

func (mr *mongoRepository) findAccount(ctx context.Context, filter bson.M) (*model.Account, error) {
	var doc accountDoc
	if err := mr.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

func (mr *mongoRepository) SaveAccount(ctx context.Context, account *model.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return repository.ErrNotFound
	}
	posts := make([]primitive.ObjectID, 0, len(account.Posts))
	for _, id := range account.Posts {
		postID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return fmt.Errorf("post id %q: %w", id, err)
		}
		posts = append(posts, postID)
	}

	res, err := mr.accounts.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"email":    account.Email,
		"name":     account.Name,
		"password": account.Password,
		"posts":    posts,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %q: %w", account.Email, repository.ErrDuplicate)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (mr *mongoRepository) AddAccountPost(ctx context.Context, accountID, postID string) error {
	return mr.updatePosts(ctx, accountID, postID, "$addToSet")
}

func (mr *mongoRepository) RemoveAccountPost(ctx context.Context, accountID, postID string) error {
	return mr.updatePosts(ctx, accountID, postID, "$pull")
}

func (mr *mongoRepository) updatePosts(ctx context.Context, accountID, postID, op string) error {
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return repository.ErrNotFound
	}
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("post id %q: %w", postID, err)
	}

	res, err := mr.accounts.UpdateByID(ctx, oid, bson.M{op: bson.M{"posts": pid}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (mr *mongoRepository) CreatePost(ctx context.Context, post *model.Post) error {
	creator, err := primitive.ObjectIDFromHex(post.Creator)
	if err != nil {
		return fmt.Errorf("creator id %q: %w", post.Creator, err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := postDoc{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Creator:   creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := mr.posts.InsertOne(ctx, doc); err != nil {
		return err
	}
	*post = *doc.toModel()
	return nil
}

func (mr *mongoRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc postDoc
	if err := mr.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

func (mr *mongoRepository) SavePost(ctx context.Context, post *model.Post) error {
	oid, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return repository.ErrNotFound
	}
	var doc postDoc
	err = mr.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"title":     post.Title,
			"content":   post.Content,
			"imageUrl":  post.ImageURL,
			"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return notFound(err)
	}
	*post = *doc.toModel()
	return nil
}

func (mr *mongoRepository) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := mr.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (mr *mongoRepository) CountPosts(ctx context.Context) (int64, error) {
	return mr.posts.CountDocuments(ctx, bson.M{})
}

func (mr *mongoRepository) GetPosts(ctx context.Context, limit int, offset int) ([]model.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := mr.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []model.Post{}
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		posts = append(posts, *doc.toModel())
	}
	return posts, cur.Err()
}

func (d accountDoc) toModel() *model.Account {
	posts := make([]string, 0, len(d.Posts))
	for _, id := range d.Posts {
		posts = append(posts, id.Hex())
	}
	return &model.Account{
		ID:       d.ID.Hex(),
		Email:    d.Email,
		Name:     d.Name,
		Password: d.Password,
		Posts:    posts,
	}
}

func (d postDoc) toModel() *model.Post {
	return &model.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Creator:   d.Creator.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
