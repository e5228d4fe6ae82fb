package memory

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/mailer"
	"smartpurse/backend/internal/store"
)

func TestListFilterByStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, c := range []domain.Category{
		{Category: "Drinks", StoreID: "S1"},
		{Category: "Snacks", StoreID: "S2"},
		{Category: "Bakery", StoreID: "S1"},
	} {
		if _, err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}

	filtered, err := s.ListCategories(ctx, store.ListFilter{StoreID: "S1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered) != 2 || filtered[0].Category != "Drinks" || filtered[1].Category != "Bakery" {
		t.Fatalf("unexpected filtered categories: %+v", filtered)
	}

	all, err := s.ListCategories(ctx, store.ListFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}
}

func TestErrorLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, msg := range []string{"first", "second"} {
		if _, err := s.CreateErrorLog(ctx, domain.ErrorLog{StoreID: "S1", ErrorMessage: msg}); err != nil {
			t.Fatalf("create error log: %v", err)
		}
	}
	logs, err := s.ListErrorLogs(ctx, store.ListFilter{StoreID: "S1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].ErrorMessage != "second" {
		t.Fatalf("expected newest first, got %+v", logs)
	}
}

func TestSaleBillNoIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.CreateSale(ctx, domain.Sale{BillNo: "B1"}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	_, err := s.CreateSale(ctx, domain.Sale{BillNo: "B1"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSaleItemsRequireParentSale(t *testing.T) {
	err := New().CreateSaleItems(context.Background(), []domain.SaleItem{{BillNo: "missing", Name: "Pen"}})
	if err == nil || !strings.Contains(err.Error(), "foreign key") {
		t.Fatalf("expected foreign key error, got %v", err)
	}
}

func TestDeleteSaleCascadesItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	sale, err := s.CreateSale(ctx, domain.Sale{BillNo: "B1", StoreID: "S1"})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if err := s.CreateSaleItems(ctx, []domain.SaleItem{{BillNo: "B1", Name: "Pen"}, {BillNo: "B1", Name: "Ink"}}); err != nil {
		t.Fatalf("create items: %v", err)
	}

	got, err := s.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(got.SaleItems) != 2 {
		t.Fatalf("expected joined items, got %+v", got.SaleItems)
	}

	if err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	items, _ := s.ListSaleItems(ctx, "B1")
	if len(items) != 0 {
		t.Fatalf("expected cascade delete, got %+v", items)
	}
	if _, err := s.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateSaleCascadesBillNo(t *testing.T) {
	ctx := context.Background()
	s := New()
	sale, _ := s.CreateSale(ctx, domain.Sale{BillNo: "B1"})
	_ = s.CreateSaleItems(ctx, []domain.SaleItem{{BillNo: "B1", Name: "Pen"}})

	b2 := "B2"
	if _, err := s.UpdateSale(ctx, sale.ID, domain.SaleUpdate{BillNo: &b2}); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	items, _ := s.ListSaleItems(ctx, "B2")
	if len(items) != 1 {
		t.Fatalf("expected items re-keyed to B2, got %+v", items)
	}
}

func TestUpdatesKeepUnsentFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	user, _ := s.CreateUser(ctx, domain.User{Name: "Ana", Phone: "555", Role: "cashier", StoreID: "S1"})
	role := "manager"
	gotUser, err := s.UpdateUser(ctx, user.ID, domain.UserUpdateRequest{Role: &role})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if gotUser.Role != "manager" || gotUser.Name != "Ana" || gotUser.Phone != "555" || gotUser.StoreID != "S1" {
		t.Fatalf("expected only role to change, got %+v", gotUser)
	}

	item, _ := s.CreateInventoryItem(ctx, domain.InventoryItem{Item: "Pen", SellingPrice: 2, StoreID: "S1", Quantity: 10})
	quantity := 5
	gotItem, err := s.UpdateInventoryItem(ctx, item.ID, domain.InventoryUpdate{Quantity: &quantity})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if gotItem.Quantity != 5 || gotItem.Item != "Pen" || gotItem.SellingPrice != 2 || gotItem.StoreID != "S1" {
		t.Fatalf("expected only quantity to change, got %+v", gotItem)
	}

	setting, _ := s.CreateSetting(ctx, domain.Setting{StoreID: "S1", Currency: "USD", TaxRate: 7.5})
	theme := "dark"
	gotSetting, err := s.UpdateSetting(ctx, setting.ID, domain.SettingUpdate{Theme: &theme})
	if err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if gotSetting.Theme != "dark" || gotSetting.Currency != "USD" || gotSetting.TaxRate != 7.5 || gotSetting.UpdatedAt == nil {
		t.Fatalf("expected only theme to change, got %+v", gotSetting)
	}
}

func TestFailNextIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailNext("CreateCategory", boom)

	if _, err := s.CreateCategory(ctx, domain.Category{Category: "A", StoreID: "S1"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := s.CreateCategory(ctx, domain.Category{Category: "A", StoreID: "S1"}); err != nil {
		t.Fatalf("expected second call to succeed, got %v", err)
	}
}

func TestSeededStoreLookup(t *testing.T) {
	stores, err := NewSeeded().FindStores(context.Background(), "demo-store")
	if err != nil {
		t.Fatalf("find stores: %v", err)
	}
	if len(stores) != 1 || stores[0].Name == "" {
		t.Fatalf("expected seeded demo store, got %+v", stores)
	}
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func TestIdentityLifecycle(t *testing.T) {
	ctx := context.Background()
	mail := &captureMailer{}
	ids := NewIdentity("test-secret", mail)

	id, err := ids.CreateIdentity(ctx, "Cashier@Example.com", "12345678")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if !ids.CheckPassword("cashier@example.com", "12345678") {
		t.Fatalf("expected default password to verify")
	}
	if _, err := ids.CreateIdentity(ctx, "cashier@example.com", "12345678"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate identity error, got %v", err)
	}

	if err := ids.DeleteIdentity(ctx, id); err != nil {
		t.Fatalf("delete identity: %v", err)
	}
	if ids.Exists(id) {
		t.Fatalf("identity should be gone")
	}
	if err := ids.DeleteIdentity(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPasswordResetMailsSignedLink(t *testing.T) {
	ctx := context.Background()
	mail := &captureMailer{}
	ids := NewIdentity("test-secret", mail)
	id, err := ids.CreateIdentity(ctx, "a@b.c", "12345678")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}

	if err := ids.SendPasswordReset(ctx, "nobody@b.c", "https://your-app.com/update-password"); err != nil {
		t.Fatalf("unknown address should succeed silently: %v", err)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("no mail expected for unknown address")
	}

	if err := ids.SendPasswordReset(ctx, "a@b.c", "https://your-app.com/update-password"); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "a@b.c" {
		t.Fatalf("expected one reset mail, got %+v", mail.sent)
	}

	body := mail.sent[0].HTML
	start := strings.Index(body, `href="`) + len(`href="`)
	end := strings.Index(body[start:], `"`)
	link, err := url.Parse(strings.ReplaceAll(body[start:start+end], "&amp;", "&"))
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if link.Host != "your-app.com" || link.Path != "/update-password" {
		t.Fatalf("unexpected redirect target: %s", link)
	}
	sub, err := ids.VerifyResetToken(link.Query().Get("token"))
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if sub != id {
		t.Fatalf("expected token subject %s, got %s", id, sub)
	}

	if _, err := NewIdentity("other-secret", mail).VerifyResetToken(link.Query().Get("token")); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}
}
