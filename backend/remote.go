package backend

import (
	"context"
	"time"

	"leviro/db"
	"leviro/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Remote is the MongoDB backend.
type Remote struct {
	db      *db.DB
	tracer  trace.Tracer
	timeout time.Duration
	now     func() time.Time
}

// NewRemote wraps d. A positive timeout bounds every call.
func NewRemote(d *db.DB, timeout time.Duration) *Remote {
	return &Remote{
		db:      d,
		tracer:  otel.Tracer("leviro/backend"),
		timeout: timeout,
		now:     time.Now,
	}
}

func (r *Remote) start(ctx context.Context, op, collection string) (context.Context, func(*error)) {
	ctx, span := r.tracer.Start(ctx, "mongo."+op, trace.WithAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", collection),
	))
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	return ctx, func(errp *error) {
		cancel()
		if err := *errp; err != nil && !IsNotFound(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.WithError(err).WithField("op", op).Warn("remote call failed")
		}
		span.End()
	}
}

func (r *Remote) ListProducts(ctx context.Context) (out []models.Product, err error) {
	ctx, done := r.start(ctx, "products.find", db.ProductsCollection)
	defer done(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.db.Products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	out = []models.Product{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

func (r *Remote) InsertProduct(ctx context.Context, p models.Product) (_ models.Product, err error) {
	ctx, done := r.start(ctx, "products.insert", db.ProductsCollection)
	defer done(&err)

	p.ID = primitive.NewObjectID().Hex()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	p.Sizes = models.SortSizes(p.Sizes)
	if _, err = r.db.Products.InsertOne(ctx, p); err != nil {
		return models.Product{}, errors.Wrap(err, "insert product")
	}
	return p, nil
}

func (r *Remote) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (_ models.Product, err error) {
	ctx, done := r.start(ctx, "products.update", db.ProductsCollection)
	defer done(&err)

	set := patchDocument(patch)
	var p models.Product
	if len(set) == 0 {
		err = r.db.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = r.db.Products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	}
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, errors.Wrap(err, "update product")
	}
	return p, nil
}

func patchDocument(patch models.ProductPatch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Sizes != nil {
		set["sizes"] = models.SortSizes(patch.Sizes)
	}
	return set
}

func (r *Remote) DeleteProduct(ctx context.Context, id string) (err error) {
	ctx, done := r.start(ctx, "products.delete", db.ProductsCollection)
	defer done(&err)

	res, err := r.db.Products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Remote) ListOrders(ctx context.Context) (out []models.Order, err error) {
	ctx, done := r.start(ctx, "orders.find", db.OrdersCollection)
	defer done(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.db.Orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	out = []models.Order{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return out, nil
}

func (r *Remote) InsertOrder(ctx context.Context, o models.Order) (err error) {
	ctx, done := r.start(ctx, "orders.insert", db.OrdersCollection)
	defer done(&err)

	if _, err = r.db.Orders.InsertOne(ctx, o); err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (r *Remote) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (err error) {
	ctx, done := r.start(ctx, "orders.update", db.OrdersCollection)
	defer done(&err)

	res, err := r.db.Orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Remote) LoadCredentials(ctx context.Context) (creds models.Credentials, ok bool, err error) {
	ctx, done := r.start(ctx, "settings.find", db.SettingsCollection)
	defer done(&err)

	err = r.db.Settings.FindOne(ctx, bson.M{"_id": models.CredentialsKey}).Decode(&creds)
	if err == mongo.ErrNoDocuments {
		return models.Credentials{}, false, nil
	}
	if err != nil {
		return models.Credentials{}, false, errors.Wrap(err, "load credentials")
	}
	return creds, true, nil
}

func (r *Remote) SaveCredentials(ctx context.Context, creds models.Credentials) (err error) {
	ctx, done := r.start(ctx, "settings.upsert", db.SettingsCollection)
	defer done(&err)

	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = r.now().UTC()
	}
	_, err = r.db.Settings.UpdateOne(ctx,
		bson.M{"_id": models.CredentialsKey},
		bson.M{"$set": creds},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "save credentials")
	}
	return nil
}
