package medication

import (
	"encoding/json"
	"testing"
	"time"
)

// ---- Amounts ----

func TestNormalizeAmount(t *testing.T) {
	tests := map[string]string{
		"12.5":  "12.50",
		"12.50": "12.50",
		" 3 ":   "3.00",
		"abc":   "abc",
		"1/3":   "1/3",
		"2.005": "2.01",
		"":      "",
	}
	for in, want := range tests {
		if got := NormalizeAmount(in); got != want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLineTotal_IsExact(t *testing.T) {
	if got := LineTotal("0.10", 3); got != "0.30" {
		t.Errorf("expected exact 0.30, got %q", got)
	}
	if got := LineTotal("19.99", 3); got != "59.97" {
		t.Errorf("expected 59.97, got %q", got)
	}
	if got := LineTotal("n/a", 3); got != "" {
		t.Errorf("expected empty for unparseable price, got %q", got)
	}
}

func TestSumAmounts(t *testing.T) {
	if got := SumAmounts("0.10", "0.20", "junk", "1"); got != "1.30" {
		t.Errorf("expected 1.30, got %q", got)
	}
	if got := SumAmounts(); got != "0.00" {
		t.Errorf("expected 0.00, got %q", got)
	}
}

// ---- Medicine ----

func TestMedicineWire_TolerantFields(t *testing.T) {
	var w medicineWire
	raw := `{"id": 4, "name": " Amoxicillin ", "stock": "25", "price": 12.5, "created_at": "2024-01-01T00:00:00Z"}`
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m := w.toModel()
	if m.ID != "4" || m.Name != "Amoxicillin" || m.Stock != 25 || m.Price != "12.50" {
		t.Errorf("unexpected medicine %+v", m)
	}
}

func TestMedicine_LowStock(t *testing.T) {
	if !(Medicine{Stock: 9}).LowStock(0) {
		t.Error("expected 9 to be low with the default threshold")
	}
	if (Medicine{Stock: 10}).LowStock(0) {
		t.Error("expected 10 not to be low with the default threshold")
	}
	if !(Medicine{Stock: 15}).LowStock(20) {
		t.Error("expected 15 to be low below 20")
	}
}

// ---- Sale ----

func TestSaleWire_MedicineDetail(t *testing.T) {
	var w saleWire
	raw := `{"id": 2, "medicine": 4, "medicine_detail": {"id": 4, "name": "Ibuprofen", "price": "2.00"},
		"quantity": 3, "total_amount": "6.00", "date": "2024-02-02"}`
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := w.toModel()
	if s.MedicineID != "4" || s.MedicineName != "Ibuprofen" || s.Quantity != 3 || s.TotalAmount != "6.00" {
		t.Errorf("unexpected sale %+v", s)
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected created time from the sale date")
	}
}

func TestNewSale(t *testing.T) {
	s := NewSale(Medicine{ID: "4", Name: "Ibuprofen", Price: "2.25"}, 4, "2024-02-02")
	if s.TotalAmount != "9.00" || s.MedicineID != "4" {
		t.Errorf("unexpected sale %+v", s)
	}
}

func TestSale_TouchedDefaultsDate(t *testing.T) {
	at := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	s := Sale{}.Touched(at)
	if s.Date != "2024-07-04" {
		t.Errorf("expected date from the touch time, got %q", s.Date)
	}
}

func TestDailySalesWire(t *testing.T) {
	var w dailySalesWire
	raw := `{"date":"2024-02-02","sales":[{"id":1,"medicine":2,"quantity":1,"total_amount":"5"}, null],"total_revenue":5}`
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := w.toModel()
	if len(d.Sales) != 1 || d.SalesCount != 1 || d.TotalRevenue != "5.00" {
		t.Errorf("unexpected daily sales %+v", d)
	}
}
