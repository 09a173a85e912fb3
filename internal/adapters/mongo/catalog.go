package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository reads shows from the movie catalog. It is the seat
// inventory of the booking core and never writes capacity on its behalf.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("shows"),
		logger: logger,
	}
}

type ShowDoc struct {
	ID         int64     `bson:"_id" json:"id"`
	MovieTitle string    `bson:"movie_title" json:"movie_title"`
	ScreenName string    `bson:"screen_name" json:"screen_name"`
	StartsAt   time.Time `bson:"starts_at" json:"starts_at"`
	TotalSeats int       `bson:"total_seats" json:"total_seats"`
	CreatedAt  time.Time `bson:"created_at" json:"-"`
	UpdatedAt  time.Time `bson:"updated_at" json:"-"`
}

func (c *CatalogRepository) GetShow(ctx context.Context, id int64) (*ShowDoc, error) {
	var show ShowDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&show)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(domain.ErrShowNotFound, "show %d", id)
	}
	if err != nil {
		c.logger.WithError(err).WithField("show_id", id).Error("failed to get show")
		return nil, errors.Wrap(err, "get show")
	}
	return &show, nil
}

func (c *CatalogRepository) TotalSeats(ctx context.Context, showID int64) (int, error) {
	var doc struct {
		TotalSeats int `bson:"total_seats"`
	}
	opts := options.FindOne().SetProjection(bson.M{"total_seats": 1})
	err := c.coll.FindOne(ctx, bson.M{"_id": showID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, errors.Wrapf(domain.ErrShowNotFound, "show %d", showID)
	}
	if err != nil {
		c.logger.WithError(err).WithField("show_id", showID).Error("failed to read show capacity")
		return 0, errors.Wrap(err, "read show capacity")
	}
	return doc.TotalSeats, nil
}

func (c *CatalogRepository) CreateShow(ctx context.Context, show ShowDoc) error {
	if show.TotalSeats < 0 {
		return errors.Newf("show %d: negative capacity %d", show.ID, show.TotalSeats)
	}
	now := time.Now().UTC()
	show.CreatedAt = now
	show.UpdatedAt = now
	_, err := c.coll.InsertOne(ctx, show)
	if err != nil {
		c.logger.WithError(err).WithField("show_id", show.ID).Error("failed to create show")
		return errors.Wrap(err, "create show")
	}
	return nil
}
