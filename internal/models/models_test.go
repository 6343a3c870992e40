package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/linkbox/internal/shared"
)

func TestNewBookmarkValidate(t *testing.T) {
	tc := []struct {
		name    string
		in      NewBookmark
		wantErr bool
	}{
		{name: "complete", in: NewBookmark{Owner: "u1", Title: "Go", URL: "https://go.dev"}},
		{name: "blank title", in: NewBookmark{Owner: "u1", Title: "  ", URL: "https://go.dev"}, wantErr: true},
		{name: "empty url", in: NewBookmark{Owner: "u1", Title: "Go"}, wantErr: true},
		{name: "no owner", in: NewBookmark{Title: "Go", URL: "x"}, wantErr: true},
		{name: "url is opaque", in: NewBookmark{Owner: "u1", Title: "Go", URL: "not a url"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	e := ChangeEvent{Kind: EventInsert, Table: TableBookmarks, Owner: "u1", ID: "b1"}

	if !ByOwner("u1").Matches(e) {
		t.Error("owner filter should match own event")
	}
	if ByOwner("u2").Matches(e) {
		t.Error("owner filter should not match another owner's event")
	}
	if ByID("u1", "b2").Matches(e) {
		t.Error("id filter should not match a different row")
	}
	if err := (Filter{}).Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("empty filter should be invalid, got %v", err)
	}
}

func TestEventMask(t *testing.T) {
	if !MaskAll.Has(EventDelete) {
		t.Error("MaskAll should include deletes")
	}
	if MaskInsert.Has(EventUpdate) {
		t.Error("MaskInsert should not include updates")
	}
	if (MaskInsert | MaskDelete).Has(EventKind(0)) {
		t.Error("unknown kinds are never selected")
	}
}

func TestChangeEventJSON(t *testing.T) {
	in := ChangeEvent{Kind: EventUpdate, Table: TableBookmarks, Owner: "u1", ID: "b1", At: time.Unix(10, 5).UTC()}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out ChangeEvent
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	if err := json.Unmarshal([]byte(`{"kind":"TRUNCATE"}`), &out); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSession(t *testing.T) {
	now := time.Now()
	s := &Session{AccountID: "u1", Email: "me@example.com", ExpiresAt: now.Add(time.Minute)}

	if s.Expired(now) {
		t.Error("session should not be expired yet")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("session should be expired at expires_at")
	}
	if s.Identity() != "me@example.com" {
		t.Errorf("Identity() = %q", s.Identity())
	}

	var none *Session
	if none.Owner() != "" || !none.Expired(now) {
		t.Error("nil session has no owner and is expired")
	}
}
