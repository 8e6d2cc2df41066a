package chunker

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/forgevault/forgevault/internal/keyschedule"
)

func chunkAll(t *testing.T, data []byte) [][]byte {
	t.Helper()
	table := keyschedule.ZeroKey.DeriveGearTable()
	c := New(bytes.NewReader(data), &table)

	var out [][]byte
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		buf := make([]byte, len(chunk.Data))
		copy(buf, chunk.Data)
		out = append(out, buf)
	}
	return out
}

func TestChunksReassemble(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	data := make([]byte, 4<<20)
	rnd.Read(data)

	chunks := chunkAll(t, data)
	var total []byte
	for _, c := range chunks {
		total = append(total, c...)
	}
	if !bytes.Equal(total, data) {
		t.Fatal("reassembled chunks do not match original data")
	}
}

func TestEmptyStreamYieldsNoChunks(t *testing.T) {
	chunks := chunkAll(t, nil)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty stream, got %d", len(chunks))
	}
}

func TestDeterministicBoundaries(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	data := make([]byte, 1<<20)
	rnd.Read(data)

	a := chunkAll(t, data)
	b := chunkAll(t, data)
	if len(a) != len(b) {
		t.Fatalf("chunk count differs across runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Fatalf("chunk %d differs across runs", i)
		}
	}
}

func TestEditLocality(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	data := make([]byte, 1<<20)
	rnd.Read(data)

	before := chunkAll(t, data)

	edited := make([]byte, len(data))
	copy(edited, data)
	edited[len(edited)/2] ^= 0xff

	after := chunkAll(t, edited)

	beforeSet := make(map[string]int)
	for _, c := range before {
		beforeSet[string(c)]++
	}
	afterSet := make(map[string]int)
	for _, c := range after {
		afterSet[string(c)]++
	}

	diff := 0
	for k, n := range afterSet {
		if beforeSet[k] < n {
			diff += n - beforeSet[k]
		}
	}
	if diff > 2 {
		t.Fatalf("edit locality violated: %d new chunks (want <= 2)", diff)
	}
}
