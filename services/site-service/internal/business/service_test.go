package business

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	bySlug map[string]int64
	items  map[int64]model.Business
	views  map[int64]int
	// stolen slugs are reported free by SlugExists but rejected on insert,
	// simulating a concurrent writer winning the race.
	stolen    map[string]bool
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		bySlug: map[string]int64{},
		items:  map[int64]model.Business{},
		views:  map[int64]int{},
		stolen: map[string]bool{},
	}
}

func (m *memStore) SlugExists(_ context.Context, s string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bySlug[s]
	return ok, nil
}

func (m *memStore) Insert(_ context.Context, b *model.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.stolen[b.Slug] {
		m.nextID++
		m.bySlug[b.Slug] = m.nextID
		m.items[m.nextID] = model.Business{ID: m.nextID, Slug: b.Slug}
		delete(m.stolen, b.Slug)
		return &pgconn.PgError{Code: "23505", ConstraintName: storage.ConstraintSlug}
	}
	if _, ok := m.bySlug[b.Slug]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: storage.ConstraintSlug}
	}
	m.nextID++
	b.ID = m.nextID
	m.bySlug[b.Slug] = b.ID
	m.items[b.ID] = *b
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (model.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return model.Business{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *memStore) GetBySlug(ctx context.Context, s string) (model.Business, error) {
	m.mu.Lock()
	id, ok := m.bySlug[s]
	m.mu.Unlock()
	if !ok {
		return model.Business{}, pgx.ErrNoRows
	}
	return m.Get(ctx, id)
}

func (m *memStore) ListByOwner(_ context.Context, ownerID int64) ([]model.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Business
	for _, b := range m.items {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status model.ApprovalStatus, _ int) ([]model.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Business
	for _, b := range m.items {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id int64, p model.BusinessProfile) (model.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return model.Business{}, pgx.ErrNoRows
	}
	b.Name, b.Description, b.Phone, b.Email, b.Address = p.Name, p.Description, p.Phone, p.Email, p.Address
	b.BusinessHours = p.BusinessHours
	m.items[id] = b
	return b, nil
}

func (m *memStore) SetStatus(_ context.Context, id int64, status model.ApprovalStatus) (model.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return model.Business{}, pgx.ErrNoRows
	}
	b.Status = status
	m.items[id] = b
	return b, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	delete(m.bySlug, b.Slug)
	return nil
}

func (m *memStore) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	m.views[id]++
	return nil
}

func newService(store *memStore) *Service {
	deploy := slug.DeploymentConfig{BaseDomain: "bizsites.test"}
	return New(store, deploy, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func create(t *testing.T, svc *Service, owner int64, name, preferred string) model.Business {
	t.Helper()
	b, err := svc.Create(context.Background(), owner, CreateInput{Name: name, PreferredSlug: preferred})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return b
}

func TestCreateDerivesSlugAndURLs(t *testing.T) {
	svc := newService(newMemStore())
	b := create(t, svc, 7, "Blue Cafe & Bakery", "")

	if b.Slug != "blue-cafe-bakery" {
		t.Fatalf("slug = %q", b.Slug)
	}
	if b.SubdomainURL != "https://blue-cafe-bakery.bizsites.test" {
		t.Fatalf("subdomain url = %q", b.SubdomainURL)
	}
	if b.SubdirectoryURL != "https://bizsites.test/blue-cafe-bakery" {
		t.Fatalf("subdirectory url = %q", b.SubdirectoryURL)
	}
	if b.Status != model.ApprovalPending || b.OwnerID != 7 {
		t.Fatalf("unexpected business %+v", b)
	}
}

func TestCreateSameNameGetsDistinctSlugs(t *testing.T) {
	svc := newService(newMemStore())
	want := []string{"blue-cafe", "blue-cafe-1", "blue-cafe-2"}
	for _, w := range want {
		if got := create(t, svc, 1, "Blue Cafe", "").Slug; got != w {
			t.Fatalf("slug = %q, want %q", got, w)
		}
	}
}

func TestCreateHonoursPreferredSlug(t *testing.T) {
	svc := newService(newMemStore())
	if got := create(t, svc, 1, "Blue Cafe", "  My Cafe ").Slug; got != "my-cafe" {
		t.Fatalf("slug = %q", got)
	}
	// taken preferred falls back to the name
	if got := create(t, svc, 1, "Blue Cafe", "my-cafe").Slug; got != "blue-cafe" {
		t.Fatalf("slug = %q", got)
	}
}

func TestCreateRetriesLostRace(t *testing.T) {
	store := newMemStore()
	store.stolen["blue-cafe"] = true
	svc := newService(store)

	b := create(t, svc, 1, "Blue Cafe", "")
	if b.Slug != "blue-cafe-1" {
		t.Fatalf("slug = %q, want blue-cafe-1", b.Slug)
	}
}

func TestCreateGivesUpAfterRepeatedViolations(t *testing.T) {
	store := newMemStore()
	store.insertErr = &pgconn.PgError{Code: "23505", ConstraintName: storage.ConstraintSlug}
	svc := newService(store)

	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "Blue Cafe"})
	if _, ok := apperr.AsConflict(err); !ok {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateStorageError(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("connection reset")
	svc := newService(store)

	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "Blue Cafe"})
	var se *apperr.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestCreateValidatesProfile(t *testing.T) {
	svc := newService(newMemStore())
	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing name", CreateInput{Name: "   "}, "businessName"},
		{"bad email", CreateInput{Name: "Cafe", Profile: model.BusinessProfile{Email: "nope"}}, "email"},
		{"bad hours", CreateInput{Name: "Cafe", Profile: model.BusinessProfile{
			BusinessHours: schedule.WeeklyHours{"monday": {Open: true, Start: "17:00", End: "09:00"}},
		}}, "businessHours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tc.in)
			ve, ok := apperr.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestCheckSlug(t *testing.T) {
	svc := newService(newMemStore())
	create(t, svc, 1, "Blue Cafe", "")

	res, err := svc.CheckSlug(context.Background(), "blue-cafe")
	if err != nil {
		t.Fatal(err)
	}
	if res.Available {
		t.Fatal("expected taken")
	}
	if len(res.Suggestions) != 3 || res.Suggestions[0] != "blue-cafe-1" {
		t.Fatalf("suggestions = %v", res.Suggestions)
	}

	if _, err := svc.CheckSlug(context.Background(), "Blue Cafe"); err == nil {
		t.Fatal("expected validation error for unnormalized input")
	}
}

func TestPublishedOnlyServesApproved(t *testing.T) {
	svc := newService(newMemStore())
	b := create(t, svc, 1, "Blue Cafe", "")
	ctx := context.Background()

	if _, err := svc.Published(ctx, b.Slug); err == nil {
		t.Fatal("pending business must not be published")
	}
	if _, err := svc.SetStatus(ctx, b.ID, "APPROVED"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Published(ctx, b.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != b.ID {
		t.Fatalf("got business %d", got.ID)
	}
	if _, err := svc.Published(ctx, "nobody"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc := newService(newMemStore())
	b := create(t, svc, 1, "Blue Cafe", "")
	ctx := context.Background()
	p := model.BusinessProfile{Name: "Blue Cafe Renamed", Phone: "555-0100"}

	if _, err := svc.Update(ctx, model.Actor{UserID: 2}, b.ID, p); err == nil {
		t.Fatal("stranger must not edit")
	} else if _, ok := apperr.AsForbidden(err); !ok {
		t.Fatalf("expected forbidden, got %v", err)
	}

	got, err := svc.Update(ctx, model.Actor{UserID: 1}, b.ID, p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Blue Cafe Renamed" || got.Slug != "blue-cafe" {
		t.Fatalf("unexpected update result %+v", got)
	}

	if _, err := svc.Update(ctx, model.Actor{UserID: 99, Admin: true}, b.ID, p); err != nil {
		t.Fatalf("admin edit: %v", err)
	}
	if _, err := svc.Update(ctx, model.Actor{UserID: 1}, 404, p); err == nil {
		t.Fatal("expected not found")
	} else if _, ok := apperr.AsNotFound(err); !ok {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusWorkflow(t *testing.T) {
	svc := newService(newMemStore())
	ctx := context.Background()
	a := create(t, svc, 1, "Alpha", "")
	create(t, svc, 1, "Beta", "")

	if _, err := svc.SetStatus(ctx, a.ID, "archived"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := svc.SetStatus(ctx, a.ID, "rejected"); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.ListByStatus(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Name != "Beta" {
		t.Fatalf("pending = %+v", pending)
	}
	rejected, err := svc.ListByStatus(ctx, "rejected")
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 || rejected[0].ID != a.ID {
		t.Fatalf("rejected = %+v", rejected)
	}
}

func TestDeleteFreesSlug(t *testing.T) {
	svc := newService(newMemStore())
	ctx := context.Background()
	b := create(t, svc, 1, "Blue Cafe", "")

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := apperr.AsNotFound(svc.Delete(ctx, b.ID)); !ok {
		t.Fatal("second delete should be not found")
	}
	if got := create(t, svc, 1, "Blue Cafe", "").Slug; got != "blue-cafe" {
		t.Fatalf("slug = %q", got)
	}
}

func TestRecordView(t *testing.T) {
	store := newMemStore()
	svc := newService(store)
	b := create(t, svc, 1, "Blue Cafe", "")

	svc.RecordView(context.Background(), b.ID)
	svc.RecordView(context.Background(), b.ID)
	svc.RecordView(context.Background(), 404)
	if store.views[b.ID] != 2 {
		t.Fatalf("views = %d", store.views[b.ID])
	}
}
