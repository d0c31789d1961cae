package repository

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
)

// DefaultPageSize is the number of products per catalog page
const DefaultPageSize = 12

// Taxonomy fields of a product
const (
	FieldCategory = "category"
	FieldBrand    = "brand"
	FieldStudio   = "studio"
	FieldThemes   = "themes"
	FieldSegment  = "segment"
)

// ProductFilter narrows a catalog listing. Taxon filters match a slug or a name,
// case-insensitively.
type ProductFilter struct {
	Query    string
	Category string
	Brand    string
	Studio   string
	Theme    string
	Segment  string
	Featured bool
	Offers   bool
	Page     int
	PageSize int
}

// MenuEntry is a taxon with the number of available products in it
type MenuEntry struct {
	Slug  string `bson:"_id" json:"slug"`
	Name  string `bson:"name" json:"name"`
	Count int    `bson:"count" json:"count"`
}

// Menu summarizes the browsable catalog
type Menu struct {
	Categories    []MenuEntry `json:"categories"`
	Brands        []MenuEntry `json:"brands"`
	Themes        []MenuEntry `json:"themes"`
	Segments      []MenuEntry `json:"segments"`
	FeaturedCount int64       `json:"featured_count"`
	OffersCount   int64       `json:"offers_count"`
}

// ProductRepository stores the catalog
type ProductRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		db:         db,
		collection: db.Collection(productsCollection),
	}
}

func available() bson.M {
	return bson.M{"active": true, "stock": bson.M{"$gt": 0}}
}

func exactFold(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

func taxonClause(field, v string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{field + ".slug": exactFold(v)},
		bson.M{field + ".name": exactFold(v)},
	}}
}

// buildListQuery translates f into a Mongo filter and sort order
func buildListQuery(f ProductFilter) (bson.M, bson.D) {
	and := bson.A{available()}

	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		or := bson.A{}
		for _, field := range []string{"name", "description", "category.name", "brand.name", "studio.name", "themes.name", "segment.name"} {
			or = append(or, bson.M{field: re})
		}
		and = append(and, bson.M{"$or": or})
	}
	for _, t := range []struct{ field, value string }{
		{FieldCategory, f.Category},
		{FieldBrand, f.Brand},
		{FieldStudio, f.Studio},
		{FieldThemes, f.Theme},
		{FieldSegment, f.Segment},
	} {
		if t.value != "" {
			and = append(and, taxonClause(t.field, t.value))
		}
	}

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	switch {
	case f.Featured:
		and = append(and, bson.M{"featured": true})
		sort = bson.D{{Key: "featured_order", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case f.Offers:
		and = append(and, bson.M{"discount": bson.M{"$gt": 0}})
		sort = bson.D{{Key: "discount", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
	return bson.M{"$and": and}, sort
}

// pageSkip returns the number of documents before page, or false when it does not fit an int64
func pageSkip(page, size int) (int64, bool) {
	if page < 1 || size < 1 || int64(page-1) > math.MaxInt64/int64(size) {
		return 0, false
	}
	return int64(page-1) * int64(size), true
}

// List returns one page of available products matching f and the total number of matches
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	filter, sort := buildListQuery(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	skip, ok := pageSkip(f.Page, f.PageSize)
	if !ok || skip >= total {
		return []models.Product{}, total, nil
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(skip).
		SetLimit(int64(f.PageSize))
	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Featured returns up to limit available featured products in display order
func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	filter, sort := buildListQuery(ProductFilter{Featured: true})
	return r.find(ctx, filter, options.Find().SetSort(sort).SetLimit(int64(limit)))
}

// Newest returns up to limit available products, newest first
func (r *ProductRepository) Newest(ctx context.Context, limit int) ([]models.Product, error) {
	filter, sort := buildListQuery(ProductFilter{})
	return r.find(ctx, filter, options.Find().SetSort(sort).SetLimit(int64(limit)))
}

// GetProductsByIDs returns the products that still exist among ids
func (r *ProductRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FindBySlug returns an active product by slug, in stock or not
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.collection.FindOne(ctx, bson.M{"slug": slug, "active": true}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByID returns a product regardless of its state
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Create assigns the next product id to p and stores it
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	id, err := nextSequence(ctx, r.db, productsCollection)
	if err != nil {
		return err
	}
	p.ID = id
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update replaces the editable fields of product id, keeping its id and creation time
func (r *ProductRepository) Update(ctx context.Context, id int64, p models.Product) error {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes product id
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Menu lists the taxa that have available products, with counters for the navigation
func (r *ProductRepository) Menu(ctx context.Context) (*Menu, error) {
	var (
		menu Menu
		err  error
	)
	if menu.Categories, err = r.taxa(ctx, FieldCategory, available(), false, 0); err != nil {
		return nil, err
	}
	if menu.Brands, err = r.taxa(ctx, FieldBrand, available(), false, 0); err != nil {
		return nil, err
	}
	if menu.Themes, err = r.taxa(ctx, FieldThemes, available(), false, 0); err != nil {
		return nil, err
	}
	if menu.Segments, err = r.taxa(ctx, FieldSegment, available(), false, 0); err != nil {
		return nil, err
	}

	featured, _ := buildListQuery(ProductFilter{Featured: true})
	if menu.FeaturedCount, err = r.collection.CountDocuments(ctx, featured); err != nil {
		return nil, fmt.Errorf("failed to count featured products: %w", err)
	}
	offers, _ := buildListQuery(ProductFilter{Offers: true})
	if menu.OffersCount, err = r.collection.CountDocuments(ctx, offers); err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}
	return &menu, nil
}

// Taxa lists every taxon of field used in the catalog, by name, with its number of
// available products. Taxa whose products are all unavailable are listed with a zero count.
// A limit of 0 lists them all.
func (r *ProductRepository) Taxa(ctx context.Context, field string, limit int) ([]MenuEntry, error) {
	if !validField(field) {
		return nil, fmt.Errorf("unknown taxon field %q", field)
	}
	return r.taxa(ctx, field, bson.M{}, true, limit)
}

// Facets counts the available products matching f per taxon of field
func (r *ProductRepository) Facets(ctx context.Context, f ProductFilter, field string) ([]MenuEntry, error) {
	if !validField(field) {
		return nil, fmt.Errorf("unknown taxon field %q", field)
	}
	filter, _ := buildListQuery(f)
	return r.taxa(ctx, field, filter, false, 0)
}

// Popular returns up to limit available products, featured ones first
func (r *ProductRepository) Popular(ctx context.Context, limit int) ([]models.Product, error) {
	sort := bson.D{
		{Key: "featured", Value: -1},
		{Key: "featured_order", Value: 1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}
	return r.find(ctx, available(), options.Find().SetSort(sort).SetLimit(int64(limit)))
}

// FindTaxon returns the taxon of field with the given slug, if any product carries it
func (r *ProductRepository) FindTaxon(ctx context.Context, field, slug string) (*models.Taxon, error) {
	if !validField(field) || slug == "" {
		return nil, ErrNotFound
	}
	var p models.Product
	if err := r.collection.FindOne(ctx, bson.M{field + ".slug": slug}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	var candidates []models.Taxon
	switch field {
	case FieldCategory:
		candidates = []models.Taxon{p.Category}
	case FieldThemes:
		candidates = p.Themes
	default:
		t := map[string]*models.Taxon{FieldBrand: p.Brand, FieldStudio: p.Studio, FieldSegment: p.Segment}[field]
		if t != nil {
			candidates = []models.Taxon{*t}
		}
	}
	for _, t := range candidates {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func validField(field string) bool {
	switch field {
	case FieldCategory, FieldBrand, FieldStudio, FieldThemes, FieldSegment:
		return true
	}
	return false
}

// taxa groups the products matching match by the taxa of field and counts the available ones
func (r *ProductRepository) taxa(ctx context.Context, field string, match bson.M, keepEmpty bool, limit int) ([]MenuEntry, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if field == FieldThemes {
		pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: "$" + field}})
	}
	isAvailable := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$active", true}},
		bson.M{"$gt": bson.A{"$stock", 0}},
	}}
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: bson.M{field + ".slug": bson.M{"$exists": true}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$" + field + ".slug",
			"name":  bson.M{"$first": "$" + field + ".name"},
			"count": bson.M{"$sum": bson.M{"$cond": bson.A{isAvailable, 1, 0}}},
		}}},
	)
	if !keepEmpty {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 0}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}})
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", field, err)
	}
	entries := []MenuEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return entries, nil
}

func (r *ProductRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}
