package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/intbank/portal/internal/core/domain"
)

func TestSessionDocument_Session(t *testing.T) {
	tests := []struct {
		name string
		doc  sessionDocument
		want domain.Session
	}{
		{"both present", sessionDocument{Token: "jwt", Role: "admin"}, domain.Session{Token: "jwt", Role: domain.RoleAdmin}},
		{"token only", sessionDocument{Token: "jwt"}, domain.Session{}},
		{"role only", sessionDocument{Role: "user"}, domain.Session{}},
		{"empty", sessionDocument{}, domain.Session{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.session(); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSessionDocument_DecodesHalfWrittenDocument(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": DefaultSessionKey, "token": "jwt"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc sessionDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := doc.session(); got.Authenticated() {
		t.Fatalf("a document without a role must load as no session, got %+v", got)
	}
}

func TestNewSessionStore_DefaultKey(t *testing.T) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	db := client.Database("portal_test")

	if s := NewSessionStore(db, ""); s.key != DefaultSessionKey || s.col.Name() != collectionSessions {
		t.Fatalf("unexpected store key %q collection %q", s.key, s.col.Name())
	}
	if s := NewSessionStore(db, "tab-2"); s.key != "tab-2" {
		t.Fatalf("explicit key must be kept, got %q", s.key)
	}
}
