package admin

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

type stubCatalog struct {
	addCalls    int
	updateCalls int
	deleteCalls int
	lastFields  domain.ProductFields
	lastPatch   domain.ProductPatch
	err         error
}

func (s *stubCatalog) AddProduct(_ context.Context, f domain.ProductFields) (*domain.Product, error) {
	s.addCalls++
	s.lastFields = f
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: "p1", Name: f.Name, Price: f.Price, OriginalPrice: f.OriginalPrice, IsPromo: f.IsPromo, Image: f.Image}, nil
}

func (s *stubCatalog) UpdateProduct(_ context.Context, id string, p domain.ProductPatch) (*domain.Product, error) {
	s.updateCalls++
	s.lastPatch = p
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id}, nil
}

func (s *stubCatalog) DeleteProduct(_ context.Context, _ string) error {
	s.deleteCalls++
	return s.err
}

type stubReader struct {
	row   *domain.ProductRow
	err   error
	calls int
}

func (s *stubReader) GetByID(_ context.Context, _ string) (*domain.ProductRow, error) {
	s.calls++
	return s.row, s.err
}

type stubStorage struct {
	url   string
	err   error
	calls int
	body  string
}

func (s *stubStorage) Upload(_ context.Context, _, _ string, r io.Reader) (string, error) {
	s.calls++
	b, _ := io.ReadAll(r)
	s.body = string(b)
	return s.url, s.err
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func validInput() CreateInput {
	return CreateInput{
		Name:        "Silk Dress",
		Description: "Evening dress",
		Category:    "Women",
		Price:       decimal.NewFromInt(100),
	}
}

func TestCreate_PromoPriceRejectedBeforeBackend(t *testing.T) {
	cat := &stubCatalog{}
	st := &stubStorage{url: "/uploads/x.png"}
	svc := New(cat, &stubReader{}, st, nil)

	in := validInput()
	in.IsPromo = true
	in.OriginalPrice = dec(80)
	in.ImageFile = &Upload{Name: "x.png", ContentType: "image/png", Body: strings.NewReader("img")}

	res := svc.Create(context.Background(), in)
	if res.Success || !errors.Is(res.Error, ErrPromoPrice) || res.Field != "originalPrice" {
		t.Fatalf("expected promo rejection, got %+v", res)
	}
	if cat.addCalls != 0 || st.calls != 0 {
		t.Fatalf("expected no backend calls, got add=%d upload=%d", cat.addCalls, st.calls)
	}
}

func TestCreate_PromoAcceptedWithDiscount(t *testing.T) {
	cat := &stubCatalog{}
	svc := New(cat, &stubReader{}, nil, nil)

	in := validInput()
	in.IsPromo = true
	in.OriginalPrice = dec(150)

	res := svc.Create(context.Background(), in)
	if !res.Success || res.Error != nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.DiscountPercent != 33 {
		t.Fatalf("expected 33%% discount, got %d", res.DiscountPercent)
	}
	if !cat.lastFields.InStock {
		t.Fatalf("expected inStock default true")
	}
}

func TestCreate_OriginalPriceDroppedWithoutPromo(t *testing.T) {
	cat := &stubCatalog{}
	svc := New(cat, &stubReader{}, nil, nil)

	in := validInput()
	in.OriginalPrice = dec(50)
	if res := svc.Create(context.Background(), in); !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if cat.lastFields.OriginalPrice != nil {
		t.Fatalf("expected original price dropped when not on promo")
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	svc := New(&stubCatalog{}, &stubReader{}, nil, nil)
	in := validInput()
	in.Name = "  "
	if res := svc.Create(context.Background(), in); res.Success || res.Field != "name" {
		t.Fatalf("expected name error, got %+v", res)
	}
	in = validInput()
	in.Description = ""
	if res := svc.Create(context.Background(), in); res.Field != "description" {
		t.Fatalf("expected description error, got %+v", res)
	}
	in = validInput()
	in.Price = decimal.NewFromInt(-1)
	if res := svc.Create(context.Background(), in); res.Field != "price" {
		t.Fatalf("expected price error, got %+v", res)
	}
}

func TestCreate_UploadFailureWritesNothing(t *testing.T) {
	cat := &stubCatalog{}
	st := &stubStorage{err: errors.New("bucket unavailable")}
	svc := New(cat, &stubReader{}, st, nil)

	in := validInput()
	in.ImageFile = &Upload{Name: "x.png", ContentType: "image/png", Body: strings.NewReader("img")}
	res := svc.Create(context.Background(), in)
	if res.Success || res.Error == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if cat.addCalls != 0 {
		t.Fatalf("expected no insert after failed upload")
	}
}

func TestCreate_UploadURLSubstituted(t *testing.T) {
	cat := &stubCatalog{}
	st := &stubStorage{url: "https://cdn.example.com/uploads/abc.png"}
	svc := New(cat, &stubReader{}, st, nil)

	in := validInput()
	in.Image = "ignored"
	in.ImageFile = &Upload{Name: "x.png", ContentType: "image/png", Body: strings.NewReader("img")}
	res := svc.Create(context.Background(), in)
	if !res.Success || cat.lastFields.Image != st.url || st.body != "img" {
		t.Fatalf("expected uploaded url stored, got %+v fields=%+v", res, cat.lastFields)
	}
}

func TestCreate_BackendErrorIsTagged(t *testing.T) {
	cat := &stubCatalog{err: domain.ErrAlreadyExists}
	svc := New(cat, &stubReader{}, nil, nil)
	res := svc.Create(context.Background(), validInput())
	if res.Success || !errors.Is(res.Error, domain.ErrAlreadyExists) || res.Field != "" {
		t.Fatalf("expected tagged backend failure, got %+v", res)
	}
}

func TestUpdate_MergedPromoCheck(t *testing.T) {
	promo := true
	price := decimal.NewFromInt(100)
	original := decimal.NewFromInt(150)
	reader := &stubReader{row: &domain.ProductRow{ID: "p1", Price: &price, OriginalPrice: &original, IsPromo: &promo}}
	cat := &stubCatalog{}
	svc := New(cat, reader, nil, nil)

	res := svc.Update(context.Background(), "p1", UpdateInput{Patch: domain.ProductPatch{Price: dec(160)}})
	if res.Success || !errors.Is(res.Error, ErrPromoPrice) {
		t.Fatalf("expected merged promo rejection, got %+v", res)
	}
	if cat.updateCalls != 0 {
		t.Fatalf("expected no update call")
	}

	res = svc.Update(context.Background(), "p1", UpdateInput{Patch: domain.ProductPatch{Price: dec(90)}})
	if !res.Success || cat.updateCalls != 1 {
		t.Fatalf("expected success, got %+v", res)
	}
}

func TestUpdate_PatchWithoutPricingSkipsLookup(t *testing.T) {
	reader := &stubReader{}
	cat := &stubCatalog{}
	svc := New(cat, reader, nil, nil)

	name := "  New name "
	res := svc.Update(context.Background(), "p1", UpdateInput{Patch: domain.ProductPatch{Name: &name}})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if reader.calls != 0 {
		t.Fatalf("expected no lookup for non-pricing patch")
	}
	if cat.lastPatch.Name == nil || *cat.lastPatch.Name != "New name" {
		t.Fatalf("expected trimmed name, got %v", cat.lastPatch.Name)
	}
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	cat := &stubCatalog{}
	svc := New(cat, &stubReader{}, nil, nil)
	res := svc.Update(context.Background(), "p1", UpdateInput{})
	if res.Success || res.Field != "patch" || cat.updateCalls != 0 {
		t.Fatalf("expected empty patch rejected, got %+v", res)
	}
}

func TestUpdate_MissingProduct(t *testing.T) {
	svc := New(&stubCatalog{}, &stubReader{err: domain.ErrNotFound}, nil, nil)
	res := svc.Update(context.Background(), "nope", UpdateInput{Patch: domain.ProductPatch{Price: dec(1)}})
	if res.Success || !errors.Is(res.Error, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %+v", res)
	}
}

func TestDelete(t *testing.T) {
	cat := &stubCatalog{}
	svc := New(cat, &stubReader{}, nil, nil)
	if res := svc.Delete(context.Background(), "p1"); !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	cat.err = errors.New("connection reset")
	if res := svc.Delete(context.Background(), "p1"); res.Success || res.Error == nil {
		t.Fatalf("expected tagged failure, got %+v", res)
	}
}

func TestDiscountPercent(t *testing.T) {
	cases := []struct {
		price, original int64
		want            int
	}{
		{100, 150, 33},
		{50, 100, 50},
		{100, 100, 0},
		{120, 100, 0},
		{0, 0, 0},
		{1, 3, 67},
	}
	for _, tc := range cases {
		if got := DiscountPercent(decimal.NewFromInt(tc.price), decimal.NewFromInt(tc.original)); got != tc.want {
			t.Fatalf("DiscountPercent(%d, %d) = %d, want %d", tc.price, tc.original, got, tc.want)
		}
	}
}

// The admin boundary in front of a real store: a rejected promo leaves the
// store untouched, an accepted one shows up locally.
func TestCreate_ThroughStore(t *testing.T) {
	mut := &recordingMutator{}
	store := catalog.NewStore(catalog.AllCategories, emptySource{}, mut, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	svc := New(store, &stubReader{}, nil, nil)

	in := validInput()
	in.IsPromo = true
	in.OriginalPrice = dec(80)
	if res := svc.Create(context.Background(), in); res.Success {
		t.Fatalf("expected rejection")
	}
	if mut.inserts != 0 {
		t.Fatalf("expected no insert")
	}

	in.OriginalPrice = dec(150)
	res := svc.Create(context.Background(), in)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	snap := store.Snapshot()
	if len(snap.Products) != 1 || snap.Products[0].ID != res.Product.ID {
		t.Fatalf("expected product in store, got %+v", snap.Products)
	}
}

type emptySource struct{}

func (emptySource) List(context.Context, string) ([]domain.ProductRow, error) { return nil, nil }

type recordingMutator struct{ inserts int }

func (m *recordingMutator) Insert(_ context.Context, f domain.ProductFields) (*domain.ProductRow, error) {
	m.inserts++
	name := f.Name
	cat := f.Category
	price := f.Price
	return &domain.ProductRow{ID: "new-1", Name: &name, Category: &cat, Price: &price, OriginalPrice: f.OriginalPrice, IsPromo: &f.IsPromo}, nil
}

func (m *recordingMutator) Update(context.Context, string, domain.ProductPatch) (*domain.ProductRow, error) {
	return nil, domain.ErrNotFound
}

func (m *recordingMutator) Delete(context.Context, string) (*domain.ProductRow, error) {
	return nil, domain.ErrNotFound
}

func TestUpdate_StoredPromoConflictIsValidationError(t *testing.T) {
	promo := true
	price := decimal.NewFromInt(100)
	original := decimal.NewFromInt(150)
	reader := &stubReader{row: &domain.ProductRow{ID: "p1", Price: &price, OriginalPrice: &original, IsPromo: &promo}}
	// another writer raised the price after the merged check passed
	cat := &stubCatalog{err: domain.ErrPromoPrice}
	svc := New(cat, reader, nil, nil)

	res := svc.Update(context.Background(), "p1", UpdateInput{Patch: domain.ProductPatch{Price: dec(90)}})
	if res.Success || !errors.Is(res.Error, ErrPromoPrice) || res.Field != "originalPrice" {
		t.Fatalf("expected promo validation failure, got %+v", res)
	}
	if cat.updateCalls != 1 {
		t.Fatalf("expected the write to be attempted once, got %d", cat.updateCalls)
	}
}
