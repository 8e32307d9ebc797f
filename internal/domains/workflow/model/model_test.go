package model

import (
	"context"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind("/" + string(k))
		if !ok || got != k {
			t.Fatalf("ParseKind(/%s) = %q, %v", k, got, ok)
		}
	}
	if got, ok := ParseKind(" TXT_TO_VCF "); !ok || got != KindTextToCards {
		t.Fatalf("expected case-insensitive match, got %q %v", got, ok)
	}
	if _, ok := ParseKind("start"); ok {
		t.Fatalf("start is not a workflow")
	}
}

func TestNewSessionMatchesKind(t *testing.T) {
	now := time.Unix(1700000000, 0)
	for _, k := range Kinds() {
		s := NewSession(7, k, now)
		if s.Data == nil || s.Data.Kind() != k {
			t.Fatalf("%s: data kind mismatch: %#v", k, s.Data)
		}
		if s.State != InitialState(k) {
			t.Fatalf("%s: unexpected initial state %s", k, s.State)
		}
		if len(s.Data.ArtifactIDs()) != 0 {
			t.Fatalf("%s: fresh session owns artifacts", k)
		}
	}
	if InitialState(KindMergeText) != StateCollecting ||
		InitialState(KindSplit) != StateAwaitingFile ||
		InitialState(KindFreeform) != StateAwaitingText {
		t.Fatalf("unexpected initial states")
	}
}

func TestBatchKeepsUploadOrder(t *testing.T) {
	d := NewData(KindRenameFiles).(*RenameFiles)
	d.Add(Item{ArtifactID: "a"})
	d.Add(Item{ArtifactID: "b"})
	d.Add(Item{ArtifactID: "c"})
	ids := d.ArtifactIDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestSessionCancel(t *testing.T) {
	s := NewSession(1, KindMergeCards, time.Now())
	s.Cancel()
	ctx, cancel := context.WithCancel(context.Background())
	s.BindCancel(cancel)
	s.Cancel()
	if ctx.Err() == nil {
		t.Fatalf("expected bound context to be cancelled")
	}
}
