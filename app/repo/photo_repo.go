package repo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fiber/responta/app/model"
)

const photoCollection = "aduan_photos"

type PhotoRepository interface {
	Add(ctx context.Context, photos ...model.Photo) error
	ListByAduan(ctx context.Context, aduanID uuid.UUID) ([]model.Photo, error)
	ListByAduanIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.Photo, error)
	Count(ctx context.Context, aduanID uuid.UUID) (int64, error)
	Remove(ctx context.Context, aduanID uuid.UUID, fileURLs []string) error
	DeleteByAduan(ctx context.Context, aduanID uuid.UUID) error
}

type PhotoRepo struct {
	coll *mongo.Collection
}

func NewPhotoRepo(mongoDB *mongo.Database) *PhotoRepo {
	return &PhotoRepo{coll: mongoDB.Collection(photoCollection)}
}

func (r *PhotoRepo) Add(ctx context.Context, photos ...model.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(photos))
	for _, p := range photos {
		docs = append(docs, p)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return translate(err, "Foto tidak ditemukan")
}

func (r *PhotoRepo) ListByAduan(ctx context.Context, aduanID uuid.UUID) ([]model.Photo, error) {
	byID, err := r.ListByAduanIDs(ctx, []uuid.UUID{aduanID})
	if err != nil {
		return nil, err
	}
	photos := byID[aduanID]
	if photos == nil {
		photos = []model.Photo{}
	}
	return photos, nil
}

// ListByAduanIDs loads the photos of a page of complaints in one round trip.
func (r *PhotoRepo) ListByAduanIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.Photo, error) {
	out := make(map[uuid.UUID][]model.Photo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"aduanId": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, translate(err, "Foto tidak ditemukan")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p model.Photo
		if err := cursor.Decode(&p); err != nil {
			return nil, translate(err, "Foto tidak ditemukan")
		}
		id, err := uuid.Parse(p.AduanID)
		if err != nil {
			continue
		}
		out[id] = append(out[id], p)
	}
	return out, translate(cursor.Err(), "Foto tidak ditemukan")
}

func (r *PhotoRepo) Count(ctx context.Context, aduanID uuid.UUID) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"aduanId": aduanID.String()})
	return n, translate(err, "Foto tidak ditemukan")
}

func (r *PhotoRepo) Remove(ctx context.Context, aduanID uuid.UUID, fileURLs []string) error {
	if len(fileURLs) == 0 {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{"aduanId": aduanID.String(), "fileUrl": bson.M{"$in": fileURLs}})
	return translate(err, "Foto tidak ditemukan")
}

func (r *PhotoRepo) DeleteByAduan(ctx context.Context, aduanID uuid.UUID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"aduanId": aduanID.String()})
	return translate(err, "Foto tidak ditemukan")
}
