package offer

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"furniture", CategoryFurniture, true},
		{" electronics ", CategoryElectronics, true},
		{"clothing", CategoryClothing, true},
		{"other", CategoryOther, true},
		{"Furniture", "", false},
		{"vehicles", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEffectivePriceFreeOverridesAmount(t *testing.T) {
	o := Offer{Free: true, Price: NumericPrice(25)}

	amount, ok := o.EffectivePrice()
	if !ok || amount != 0 {
		t.Fatalf("EffectivePrice = (%v, %v), want (0, true)", amount, ok)
	}
}

func TestEffectivePriceAbsent(t *testing.T) {
	if _, ok := (Offer{}).EffectivePrice(); ok {
		t.Fatal("expected no effective price for empty offer")
	}

	if _, ok := (Offer{Price: QualifierPrice("negotiable")}).EffectivePrice(); ok {
		t.Fatal("expected no effective price for qualifier-only price")
	}
}

func TestEffectivePriceNumeric(t *testing.T) {
	amount, ok := (Offer{Price: NumericPrice(20)}).EffectivePrice()
	if !ok || amount != 20 {
		t.Fatalf("EffectivePrice = (%v, %v), want (20, true)", amount, ok)
	}
}
