//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func getIntegrationClient(t *testing.T) *Client {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}

	client, err := NewClient(context.Background(), Config{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Table:     table,
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestIntegrationSectionRoundTrip(t *testing.T) {
	client := getIntegrationClient(t)
	ctx := context.Background()
	section := fmt.Sprintf("it-%d", time.Now().UnixNano())

	if _, err := client.OpenOrCreateIndex(ctx, section); err != nil {
		t.Fatalf("OpenOrCreateIndex failed: %v", err)
	}
	defer func() {
		if err := client.DeleteIndex(ctx, section); err != nil {
			t.Errorf("DeleteIndex failed: %v", err)
		}
	}()

	if err := client.AddDocument(ctx, section, "d1", json.RawMessage(`{"name":"first"}`)); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	res, err := client.GetDocument(ctx, section, "d1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if !res.Found() {
		t.Fatal("expected document to be found")
	}
}
