package extract

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle"
)

type fakeOracle struct {
	mu       sync.Mutex
	calls    int
	lastReq  oracle.Request
	response string
	err      error
}

func (f *fakeOracle) Health(context.Context) error { return nil }

func (f *fakeOracle) Complete(_ context.Context, req oracle.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestExtractor(o *fakeOracle) *Extractor {
	return New(o, "gpt-4o-mini", nil)
}

func TestExtractBlankTextSkipsOracle(t *testing.T) {
	o := &fakeOracle{}
	e := newTestExtractor(o)

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		found, err := e.Extract(context.Background(), text)
		if err != nil {
			t.Fatalf("Extract(%q) error: %v", text, err)
		}
		if found != nil {
			t.Fatalf("Extract(%q) = %+v, want nil", text, found)
		}
	}

	if got := o.callCount(); got != 0 {
		t.Fatalf("oracle calls = %d, want 0", got)
	}
}

func TestExtractRequestShape(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":null,"category":null,"price":null,"location":null,"is_free":false}`}
	e := newTestExtractor(o)

	if _, err := e.Extract(context.Background(), "selling a chair"); err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if o.lastReq.Temperature != extractTemperature {
		t.Fatalf("temperature = %v, want %v", o.lastReq.Temperature, extractTemperature)
	}
	if o.lastReq.Schema == nil {
		t.Fatal("expected a schema-constrained request")
	}
	if o.lastReq.User != "selling a chair" {
		t.Fatalf("user prompt = %q, want raw message text", o.lastReq.User)
	}
}

func TestExtractFullOffer(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":"Old TV Stand","category":"furniture","price":20,"location":"Limassol","is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Selling my old TV stand, 20 euro, Limassol")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found == nil {
		t.Fatal("expected an offer")
	}

	if found.Name != "Old TV Stand" {
		t.Fatalf("name = %q", found.Name)
	}
	if found.Category != offer.CategoryFurniture {
		t.Fatalf("category = %q", found.Category)
	}
	if found.Price == nil || !found.Price.Numeric || found.Price.Amount != 20 {
		t.Fatalf("price = %+v, want numeric 20", found.Price)
	}
	if found.Location != "Limassol" {
		t.Fatalf("location = %q", found.Location)
	}
	if found.Free {
		t.Fatal("free = true, want false")
	}
}

func TestExtractFreeForcesZeroPrice(t *testing.T) {
	// The oracle ignored the instruction and kept a non-zero price.
	o := &fakeOracle{response: `{"item_name":"Sofa","category":"furniture","price":100,"location":null,"is_free":true}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Giving away a sofa")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found == nil {
		t.Fatal("expected an offer")
	}

	if !found.Free {
		t.Fatal("free = false, want true")
	}
	amount, ok := found.EffectivePrice()
	if !ok || amount != 0 {
		t.Fatalf("effective price = (%v, %v), want (0, true)", amount, ok)
	}
	if found.Price == nil || !found.Price.Numeric || found.Price.Amount != 0 {
		t.Fatalf("price = %+v, want numeric 0", found.Price)
	}
}

func TestExtractQualifierPrice(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":"Desk","category":"furniture","price":"negotiable","location":null,"is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Desk for sale, price negotiable")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found == nil || found.Price == nil {
		t.Fatal("expected an offer with a price")
	}
	if found.Price.Numeric || found.Price.Qualifier != "negotiable" {
		t.Fatalf("price = %+v, want qualifier %q", found.Price, "negotiable")
	}
}

func TestExtractAllNullIsAbsent(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":null,"category":null,"price":null,"location":null,"is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Does anyone sell a fridge?")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected absent result for buy request, got %+v", found)
	}
}

func TestExtractBlankNameAloneIsAbsent(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":"  ","category":null,"price":null,"location":null,"is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "just chatting")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected absent result, got %+v", found)
	}
}

func TestExtractOutOfVocabularyCategoryDiscarded(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":"Bike","category":"vehicles","price":50,"location":null,"is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Bike for 50")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found == nil {
		t.Fatal("expected an offer")
	}
	if found.Category != "" {
		t.Fatalf("category = %q, want empty", found.Category)
	}
}

func TestExtractNegativePriceDiscarded(t *testing.T) {
	o := &fakeOracle{response: `{"item_name":"Lamp","category":"other","price":-5,"location":null,"is_free":false}`}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Lamp")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if found == nil {
		t.Fatal("expected an offer")
	}
	if found.Price != nil {
		t.Fatalf("price = %+v, want nil", found.Price)
	}
}

func TestExtractOracleFailure(t *testing.T) {
	o := &fakeOracle{err: errors.New("boom")}
	e := newTestExtractor(o)

	found, err := e.Extract(context.Background(), "Selling a chair")
	if err == nil {
		t.Fatal("expected an error")
	}
	if found != nil {
		t.Fatalf("expected nil offer on failure, got %+v", found)
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	for _, response := range []string{"not json", `{"price":{}}`, `[1,2]`} {
		o := &fakeOracle{response: response}
		e := newTestExtractor(o)

		found, err := e.Extract(context.Background(), "Selling a chair")
		if err == nil {
			t.Fatalf("response %q: expected an error", response)
		}
		if found != nil {
			t.Fatalf("response %q: expected nil offer, got %+v", response, found)
		}
	}
}
