package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
	"github.com/hazyhaar/viewcap/viewcap/internal/page/pagetest"
)

func TestLocate_FirstMatchingIdentifierWins(t *testing.T) {
	// WHAT: A stale identifier ahead of a live one is skipped.
	// WHY: Identifier sets accumulate names across viewer deployments.
	p := pagetest.NewPage().
		Add(page.Selector{By: page.ByClass, Value: "new_cls"}, &pagetest.Element{Name: "a"}, &pagetest.Element{Name: "b"}).
		Add(page.Selector{By: page.ByClass, Value: "later_cls"}, &pagetest.Element{Name: "c"})

	m, err := New(nil).Locate(context.Background(), p, IdentifierSet{"old_cls", "new_cls", "later_cls"}, ByClass)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if m.Identifier != "new_cls" {
		t.Errorf("identifier = %q, want new_cls", m.Identifier)
	}
	if got := m.Element.(*pagetest.Element).Name; got != "a" {
		t.Errorf("element = %q, want first match a", got)
	}
	if n := len(p.Queries()); n != 2 {
		t.Errorf("queries = %d, want 2 (stop at first hit)", n)
	}
}

func TestLocate_LabelReturnsLastMatch(t *testing.T) {
	// WHAT: Several buttons share a label; the last in document order wins.
	// WHY: The viewer leaves stale controls in the DOM ahead of the live one.
	p := pagetest.NewPage().Add(page.Selector{By: page.ByLabel, Value: "Next"},
		&pagetest.Element{Name: "first"}, &pagetest.Element{Name: "middle"}, &pagetest.Element{Name: "last"})

	for i := 0; i < 3; i++ {
		m, err := New(nil).Locate(context.Background(), p, IdentifierSet{"Next"}, ByLabel)
		if err != nil {
			t.Fatalf("locate: %v", err)
		}
		if got := m.Element.(*pagetest.Element).Name; got != "last" {
			t.Fatalf("element = %q, want last", got)
		}
	}
}

func TestLocate_NotFoundAfterAllTried(t *testing.T) {
	p := pagetest.NewPage()
	set := IdentifierSet{"a", "b", "c"}

	_, err := New(nil).Locate(context.Background(), p, set, ByLabel)
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
	q := p.Queries()
	if len(q) != len(set) {
		t.Fatalf("queries = %d, want %d", len(q), len(set))
	}
	for i, id := range set {
		if q[i].Value != id || q[i].By != page.ByLabel {
			t.Errorf("query %d = %v, want label=%s", i, q[i], id)
		}
	}
}

func TestLocate_EmptySet(t *testing.T) {
	_, err := New(nil).Locate(context.Background(), pagetest.NewPage(), nil, ByClass)
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
}

func TestLocate_QueryErrorIsAMiss(t *testing.T) {
	bad := page.Selector{By: page.ByClass, Value: "broken"}
	p := pagetest.NewPage().Add(page.Selector{By: page.ByClass, Value: "ok"}, &pagetest.Element{Name: "ok"})
	p.QueryErr = map[page.Selector]error{bad: errors.New("invalid selector")}

	m, err := New(nil).Locate(context.Background(), p, IdentifierSet{"broken", "ok"}, ByClass)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if m.Identifier != "ok" {
		t.Errorf("identifier = %q, want ok", m.Identifier)
	}
}

func TestLocate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Locate(ctx, pagetest.NewPage(), IdentifierSet{"a"}, ByClass)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
