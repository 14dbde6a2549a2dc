/*
Package indexclient defines the contract between the registry and a search
engine.

The Client interface covers index lifecycle and identifier-keyed document
operations:

	type Client interface {
	    OpenOrCreateIndex(ctx context.Context, section string) (Index, error)
	    AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error
	    UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error
	    RemoveDocuments(ctx context.Context, section string, ids []string) error
	    GetDocument(ctx context.Context, section, id string) (Lookup, error)
	    ListDocuments(ctx context.Context, section string, limit int) ([]Document, error)
	    DeleteIndex(ctx context.Context, section string) error
	}

A missing document is a routine outcome, so GetDocument returns a Lookup
rather than an error:

	res, err := client.GetDocument(ctx, "events", "e1")
	if err != nil {
	    return err
	}
	if !res.Found() {
	    // not registered
	}

Implementations:
  - elastic: Elasticsearch via go-elasticsearch
  - opensearch: OpenSearch via opensearch-go
  - ddb: DynamoDB single-table document store
  - mock: In-memory implementation for testing
*/
package indexclient
