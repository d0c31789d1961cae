package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/cart"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/session"
	"go-storefront/utils"
)

const testSID = "0b6f5e3a-6a0c-4c8e-9d38-3f2a4c1b7e10"

// fakeProducts is an in-memory catalog
type fakeProducts struct {
	mu          sync.Mutex
	items       map[int64]models.Product
	lastFilter  repository.ProductFilter
	facetFilter repository.ProductFilter
	err         error
}

func newFakeProducts(products ...models.Product) *fakeProducts {
	f := &fakeProducts{items: map[int64]models.Product{}}
	for _, p := range products {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) sorted(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range f.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Product) int { return int(a.ID - b.ID) })
	return out
}

func (f *fakeProducts) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(p models.Product) bool { return slices.Contains(ids, p.ID) }), nil
}

func (f *fakeProducts) List(_ context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	out := f.sorted(models.Product.Available)
	return out, int64(len(out)), nil
}

func (f *fakeProducts) Featured(_ context.Context, limit int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(p models.Product) bool { return p.Available() && p.Featured })
	return out[:min(limit, len(out))], f.err
}

func (f *fakeProducts) Newest(_ context.Context, limit int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(models.Product.Available)
	if limit > 0 {
		out = out[:min(limit, len(out))]
	}
	return out, f.err
}

func (f *fakeProducts) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug && p.Active {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) Menu(context.Context) (*repository.Menu, error) {
	return &repository.Menu{Categories: []repository.MenuEntry{{Slug: "games", Name: "Games", Count: 1}}}, f.err
}

func taxaOf(p models.Product, field string) []models.Taxon {
	switch field {
	case repository.FieldCategory:
		return []models.Taxon{p.Category}
	case repository.FieldThemes:
		return p.Themes
	}
	t := map[string]*models.Taxon{
		repository.FieldBrand:   p.Brand,
		repository.FieldStudio:  p.Studio,
		repository.FieldSegment: p.Segment,
	}[field]
	if t == nil {
		return nil
	}
	return []models.Taxon{*t}
}

// entries counts the available products per taxon of field, by name
func (f *fakeProducts) entries(field string, keepEmpty bool) []repository.MenuEntry {
	bySlug := map[string]*repository.MenuEntry{}
	for _, p := range f.sorted(func(models.Product) bool { return true }) {
		for _, t := range taxaOf(p, field) {
			e, ok := bySlug[t.Slug]
			if !ok {
				e = &repository.MenuEntry{Slug: t.Slug, Name: t.Name}
				bySlug[t.Slug] = e
			}
			if p.Available() {
				e.Count++
			}
		}
	}
	out := []repository.MenuEntry{}
	for _, e := range bySlug {
		if keepEmpty || e.Count > 0 {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b repository.MenuEntry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (f *fakeProducts) Taxa(_ context.Context, field string, limit int) ([]repository.MenuEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := f.entries(field, true)
	if limit > 0 {
		out = out[:min(limit, len(out))]
	}
	return out, nil
}

func (f *fakeProducts) Facets(_ context.Context, filter repository.ProductFilter, field string) ([]repository.MenuEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facetFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.entries(field, false), nil
}

func (f *fakeProducts) Popular(_ context.Context, limit int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(models.Product.Available)
	return out[:min(limit, len(out))], f.err
}

func (f *fakeProducts) FindTaxon(_ context.Context, field, slug string) (*models.Taxon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.sorted(func(models.Product) bool { return true }) {
		for _, t := range taxaOf(p, field) {
			if t.Slug == slug {
				return &t, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.ID = int64(len(f.items) + 1)
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, p models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	p.ID = id
	f.items[id] = p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

// fakeOrders keeps orders in memory
type fakeOrders struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	deleted   []string
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]models.Order{}}
}

func (f *fakeOrders) CreateOrder(_ context.Context, owner string, total decimal.Decimal, items []models.OrderItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	o := models.Order{ID: primitive.NewObjectID(), Items: items, Total: total, Status: models.OrderPaid, CreatedAt: time.Now()}
	if owner != "" {
		uid, err := primitive.ObjectIDFromHex(owner)
		if err != nil {
			return "", repository.ErrInvalidID
		}
		o.UserID = &uid
	}
	f.orders[o.ID.Hex()] = o
	return o.ID.Hex(), nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrders) ListByOwner(_ context.Context, owner string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if o.UserID != nil && o.UserID.Hex() == owner {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b models.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeOrders) FindForOwner(_ context.Context, id, owner string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.UserID == nil || o.UserID.Hex() != owner {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, repository.ErrInvalidTransition
	}
	o.Status = next
	f.orders[id] = o
	return &o, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// fakeUsers keeps accounts in memory, keyed by email
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID.Hex() == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Verify(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if token != "" && u.VerificationToken == token {
			u.IsVerified = true
			u.VerificationToken = ""
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, profile models.Profile) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID.Hex() == id {
			u.Profile = profile
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeSubscribers keeps subscriptions in memory, keyed by email
type fakeSubscribers struct {
	mu   sync.Mutex
	subs map[string]*models.Subscriber
}

func newFakeSubscribers() *fakeSubscribers {
	return &fakeSubscribers{subs: map[string]*models.Subscriber{}}
}

func (f *fakeSubscribers) Subscribe(_ context.Context, email, token string) (*models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[email]
	if !ok {
		s = &models.Subscriber{ID: primitive.NewObjectID(), Email: email, Token: token, CreatedAt: time.Now()}
		f.subs[email] = s
	}
	s.IsConfirmed = false
	cp := *s
	return &cp, nil
}

func (f *fakeSubscribers) Confirm(_ context.Context, token string) (*models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if token != "" && s.Token == token {
			now := time.Now()
			s.IsConfirmed = true
			s.ConfirmedAt = &now
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type sentEmail struct {
	kind  string
	to    string
	token string
	order models.Order
}

// fakeNotifier records every email it is asked to send
type fakeNotifier struct {
	sent chan sentEmail
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentEmail, 16)}
}

func (f *fakeNotifier) SendVerificationEmail(_ context.Context, to, token string) error {
	f.sent <- sentEmail{kind: "verify", to: to, token: token}
	return nil
}

func (f *fakeNotifier) SendNewsletterConfirmation(_ context.Context, to, token string) error {
	f.sent <- sentEmail{kind: "newsletter", to: to, token: token}
	return nil
}

func (f *fakeNotifier) SendOrderConfirmationEmail(_ context.Context, to string, order models.Order) error {
	f.sent <- sentEmail{kind: "order", to: to, order: order}
	return nil
}

func (f *fakeNotifier) next(t *testing.T) sentEmail {
	t.Helper()
	select {
	case e := <-f.sent:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
		return sentEmail{}
	}
}

// flakySessions fails every save
type flakySessions struct {
	SessionStore
}

func (flakySessions) Save(context.Context, string, cart.State) error {
	return errors.New("redis unavailable")
}

func newTestSessions(t *testing.T) *session.RedisStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewRedisStore(client, time.Hour)
}

func product(id int64, price, discount string, stock int) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product " + price,
		Slug:     "product-" + strings.ReplaceAll(price, ".", "-"),
		Price:    decimal.RequireFromString(price),
		Discount: decimal.RequireFromString(discount),
		Stock:    stock,
		Active:   true,
		Category: models.Taxon{Name: "Games", Slug: "games"},
	}
}

type requestOption func(*http.Request) *http.Request

func withVars(vars map[string]string) requestOption {
	return func(r *http.Request) *http.Request { return mux.SetURLVars(r, vars) }
}

func withUser(id, email, role string) requestOption {
	return func(r *http.Request) *http.Request {
		claims := &utils.Claims{UserID: id, Email: email, Role: role}
		return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, claims))
	}
}

func withForm() requestOption {
	return func(r *http.Request) *http.Request {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r
	}
}

// serve runs handler on a request inside the test session
func serve(handler http.HandlerFunc, method, target, body string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithSessionID(req.Context(), testSID))
	for _, opt := range opts {
		req = opt(req)
	}
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}
