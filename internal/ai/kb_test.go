package ai

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindBestMatch(t *testing.T) {
	kb := DefaultKnowledgeBase()

	t.Run("whole keyword wins", func(t *testing.T) {
		entry, score, found := kb.FindBestMatch("my laptop keyboard stopped working")
		if !found {
			t.Fatal("expected a match")
		}
		if entry.Category != "Hardware" {
			t.Fatalf("category = %q, want Hardware", entry.Category)
		}
		if score < 6 {
			t.Fatalf("score = %d, want >= 6 for two whole keywords", score)
		}
	})

	t.Run("stem match scores lower", func(t *testing.T) {
		_, whole, _ := kb.FindBestMatch("constant crash")
		_, stemmed, _ := kb.FindBestMatch("it keeps crashing")
		if whole <= 0 || stemmed <= 0 {
			t.Fatalf("scores = %d, %d, want both positive", whole, stemmed)
		}
		if stemmed > whole {
			t.Fatalf("stem score %d should not exceed whole score %d", stemmed, whole)
		}
	})

	t.Run("nil kb", func(t *testing.T) {
		var kb *KnowledgeBase
		if _, _, found := kb.FindBestMatch("anything"); found {
			t.Fatal("nil knowledge base should not match")
		}
	})
}

func TestTopEntries(t *testing.T) {
	kb := DefaultKnowledgeBase()

	t.Run("zero score entries excluded", func(t *testing.T) {
		got := kb.TopEntries("wifi connection is slow", 10)
		if len(got) == 0 {
			t.Fatal("expected entries")
		}
		for _, se := range got {
			if se.Score <= 0 {
				t.Fatalf("entry %s has score %d", se.Entry.ID, se.Score)
			}
		}
	})

	t.Run("sorted by score desc", func(t *testing.T) {
		got := kb.TopEntries("my laptop software has a bug", 10)
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Fatalf("entries not sorted: %d after %d", got[i].Score, got[i-1].Score)
			}
		}
	})

	t.Run("limit respected", func(t *testing.T) {
		got := kb.TopEntries("laptop software network account billing service", 2)
		if len(got) > 2 {
			t.Fatalf("len = %d, want <= 2", len(got))
		}
	})

	t.Run("no match returns nil", func(t *testing.T) {
		if got := kb.TopEntries("zzz qqq", 5); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})
}

func TestLoadKnowledgeBase(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "kb.json")
		data := `[{"id":"kb_x","category":"Network","keywords":["vpn"],"response":"VPN help","typical_resolution_time":"1 day"}]`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		kb, err := LoadKnowledgeBase(path)
		if err != nil {
			t.Fatalf("LoadKnowledgeBase: %v", err)
		}
		entry, score, found := kb.FindBestMatch("the vpn is down")
		if !found || score <= 0 || entry.ID != "kb_x" {
			t.Fatalf("match = %+v, %d, %v", entry, score, found)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadKnowledgeBase(filepath.Join(dir, "missing.json")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadKnowledgeBase(path); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestStemWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"connection", "connect"},
		{"billing", "bill"},
		{"wifi", ""},
		{"ing", ""},
	}

	for _, tt := range tests {
		if got := stemWord(tt.in); got != tt.want {
			t.Errorf("stemWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
