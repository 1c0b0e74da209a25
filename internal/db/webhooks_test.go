package db

import (
	"context"
	"testing"
)

func TestUpsertWebhookSubscription_ReplacesOnTopic(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	first := &WebhookSubscription{
		StoreID:           "store-1",
		Topic:             "products/update",
		ExternalWebhookID: "111",
		Address:           "https://api.example.com/api/shopify/webhooks/products-update",
		Status:            SubscriptionActive,
	}
	if err := db.UpsertWebhookSubscription(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := &WebhookSubscription{
		StoreID:           "store-1",
		Topic:             "products/update",
		ExternalWebhookID: "222",
		Address:           first.Address,
		Status:            SubscriptionActive,
	}
	if err := db.UpsertWebhookSubscription(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	subs, err := db.ListWebhookSubscriptions(ctx, "store-1")
	if err != nil {
		t.Fatalf("ListWebhookSubscriptions failed: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("len(subs) = %d, want 1", len(subs))
	}
	if subs[0].ExternalWebhookID != "222" {
		t.Errorf("ExternalWebhookID = %q, want 222", subs[0].ExternalWebhookID)
	}
	if subs[0].ID != first.ID {
		t.Errorf("row id changed from %q to %q", first.ID, subs[0].ID)
	}
}

func TestListWebhookSubscriptions_OrderedByTopic(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	for _, topic := range []string{"products/update", "collections/create", "orders/create"} {
		err := db.UpsertWebhookSubscription(ctx, &WebhookSubscription{
			StoreID: "store-1",
			Topic:   topic,
			Status:  SubscriptionActive,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	subs, err := db.ListWebhookSubscriptions(ctx, "store-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 3 {
		t.Fatalf("len(subs) = %d, want 3", len(subs))
	}
	want := []string{"collections/create", "orders/create", "products/update"}
	for i, topic := range want {
		if subs[i].Topic != topic {
			t.Errorf("subs[%d].Topic = %q, want %q", i, subs[i].Topic, topic)
		}
	}
}

func TestWebhookEvents(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	event := &WebhookEvent{
		StoreID:    "store-1",
		Topic:      "products/update",
		ShopDomain: "store-1.myshopify.com",
		Payload:    []byte(`{"id":9001}`),
	}
	if err := db.InsertWebhookEvent(ctx, event); err != nil {
		t.Fatalf("InsertWebhookEvent failed: %v", err)
	}

	pending, err := db.ListUnprocessedWebhookEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnprocessedWebhookEvents failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if string(pending[0].Payload) != `{"id":9001}` {
		t.Errorf("Payload = %s", pending[0].Payload)
	}

	if err := db.MarkWebhookEventProcessed(ctx, event.ID, nil); err != nil {
		t.Fatalf("MarkWebhookEventProcessed failed: %v", err)
	}

	pending, err = db.ListUnprocessedWebhookEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("len(pending) = %d after processing, want 0", len(pending))
	}
}
