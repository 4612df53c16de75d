package content

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magpress/magpress/pkg/layout"
)

// Collection names within the magpress database.
const (
	layoutCollection  = "layouts"
	contentCollection = "page_content"
)

// MongoStore persists layouts and page content in MongoDB. Layouts and
// content are stored as one document per (template, page), upserted on
// write.
type MongoStore struct {
	client   *mongo.Client
	layouts  *mongo.Collection
	contents *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store backed by the
// given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		layouts:  db.Collection(layoutCollection),
		contents: db.Collection(contentCollection),
	}, nil
}

type layoutDoc struct {
	TemplateID string         `bson:"template_id"`
	Page       int            `bson:"page"`
	Layout     *layout.Layout `bson:"layout"`
}

type contentDoc struct {
	TemplateID string            `bson:"template_id"`
	Page       int               `bson:"page"`
	Texts      map[string]string `bson:"texts"`
	Images     map[string]string `bson:"images"`
}

func pageFilter(templateID string, page int) bson.M {
	return bson.M{"template_id": templateID, "page": page}
}

// GetLayout implements Store.
func (s *MongoStore) GetLayout(ctx context.Context, templateID string, page int) (*layout.Layout, error) {
	var doc layoutDoc
	err := s.layouts.FindOne(ctx, pageFilter(templateID, page)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find layout %s/%d: %w", templateID, page, err)
	}
	return doc.Layout, nil
}

// PutLayout implements Store.
func (s *MongoStore) PutLayout(ctx context.Context, templateID string, page int, l *layout.Layout) error {
	doc := layoutDoc{TemplateID: templateID, Page: page, Layout: l}
	_, err := s.layouts.ReplaceOne(ctx, pageFilter(templateID, page), doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store layout %s/%d: %w", templateID, page, err)
	}
	return nil
}

// GetContent implements Store.
func (s *MongoStore) GetContent(ctx context.Context, templateID string, page int) (*PageContent, error) {
	var doc contentDoc
	err := s.contents.FindOne(ctx, pageFilter(templateID, page)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return NewPageContent(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content %s/%d: %w", templateID, page, err)
	}
	c := NewPageContent()
	for k, v := range doc.Texts {
		c.Texts[k] = v
	}
	for k, v := range doc.Images {
		c.Images[k] = v
	}
	return c, nil
}

// PutContent implements Store.
func (s *MongoStore) PutContent(ctx context.Context, templateID string, page int, c *PageContent) error {
	doc := contentDoc{TemplateID: templateID, Page: page, Texts: c.Texts, Images: c.Images}
	_, err := s.contents.ReplaceOne(ctx, pageFilter(templateID, page), doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store content %s/%d: %w", templateID, page, err)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
