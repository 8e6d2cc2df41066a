package memory

import (
	"bytes"
	"testing"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/cas"
)

func TestPutGetRoundTrip(t *testing.T) {
	b := New()
	data := []byte("payload")
	id, err := backend.Put(b, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := backend.Get(b, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q want %q", got, data)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	b := New()
	_, err := b.RawGet([]byte("missing"))
	if err != backend.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutDeduplicates(t *testing.T) {
	b := New()
	data := []byte("same bytes twice")
	id1, err := backend.Put(b, data)
	if err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	id2, err := backend.Put(b, data)
	if err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if !id1.Equal(id2) {
		t.Fatal("identical content must hash to the same identifier")
	}
}

func TestHeadRoundTrip(t *testing.T) {
	b := New()
	if _, ok, err := backend.GetHead(b); err != nil || ok {
		t.Fatalf("expected no HEAD set initially, ok=%v err=%v", ok, err)
	}
	if err := backend.PutHead(b, "main"); err != nil {
		t.Fatalf("PutHead: %v", err)
	}
	got, ok, err := backend.GetHead(b)
	if err != nil || !ok {
		t.Fatalf("GetHead: ok=%v err=%v", ok, err)
	}
	if got != "main" {
		t.Fatalf("HEAD = %q want %q", got, "main")
	}
}

func TestReflogWalkAndGet(t *testing.T) {
	b := New()
	ids := []cas.Identifier{
		cas.Sum([]byte("c1")),
		cas.Sum([]byte("c2")),
		cas.Sum([]byte("c3")),
	}
	for _, id := range ids {
		if err := b.ReflogPush(backend.Reflog{RefName: "main", Key: id}); err != nil {
			t.Fatalf("ReflogPush: %v", err)
		}
	}
	latest, err := b.ReflogGet("main", "")
	if err != nil {
		t.Fatalf("ReflogGet: %v", err)
	}
	if !latest.Equal(ids[len(ids)-1]) {
		t.Fatalf("ReflogGet returned %v want %v", latest, ids[len(ids)-1])
	}

	history, err := b.ReflogWalk("main", "")
	if err != nil {
		t.Fatalf("ReflogWalk: %v", err)
	}
	if len(history) != len(ids) {
		t.Fatalf("history length = %d want %d", len(history), len(ids))
	}
	// ReflogWalk is newest-first: the reverse of push order.
	for i := range history {
		want := ids[len(ids)-1-i]
		if !history[i].Equal(want) {
			t.Fatalf("history[%d] = %v want %v", i, history[i], want)
		}
	}
}

func TestReflogGetMissingRefReturnsErrNotFound(t *testing.T) {
	b := New()
	_, err := b.ReflogGet("nonexistent", "")
	if err != backend.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRawBetweenWithNilBoundsReturnsAll(t *testing.T) {
	b := New()
	ids := make([]cas.Identifier, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := backend.Put(b, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := b.RawBetween(nil, nil)
	if err != nil {
		t.Fatalf("RawBetween: %v", err)
	}
	if len(all) != len(ids) {
		t.Fatalf("RawBetween(nil,nil) returned %d values, want %d", len(all), len(ids))
	}
}
