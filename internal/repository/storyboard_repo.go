package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookreel/internal/model"
)

// StoryboardRepo 分镜记录仓库
type StoryboardRepo struct {
	collection *mongo.Collection
}

// NewStoryboardRepo 创建分镜记录仓库
func NewStoryboardRepo(db *mongo.Database) *StoryboardRepo {
	return &StoryboardRepo{
		collection: db.Collection(model.StoryboardRecord{}.Collection()),
	}
}

// Create 写入一条生成记录
func (r *StoryboardRepo) Create(ctx context.Context, record *model.StoryboardRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	return nil
}

// FindByID 根据 ID 查询
func (r *StoryboardRepo) FindByID(ctx context.Context, id string) (*model.StoryboardRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var record model.StoryboardRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List 按创建时间倒序分页查询
func (r *StoryboardRepo) List(ctx context.Context, limit, offset int64) ([]*model.StoryboardRecord, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.StoryboardRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count 记录总数
func (r *StoryboardRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
