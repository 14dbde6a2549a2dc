/*
Package ddb provides a DynamoDB implementation of indexclient.Client.

Every section lives in its own partition of a single table. The partition
holds a marker item, written on OpenOrCreateIndex, plus one item per
document. Keys are built from templates with {Section} and {ID} macros:

	keys := ddb.KeyTemplates{
	    PK: "TENANT1#{Section}", // partition per section
	    SK: "DOC#{ID}",          // must reference {ID}
	}
	client, err := ddb.NewClient(ctx, ddb.Config{
	    Region: "us-east-1",
	    Table:  "registry",
	    Keys:   keys,
	})

Add and update are conditional writes, so a duplicate add reports
AlreadyExists and an update of an absent document reports NotFound without
a read-before-write. Removing a section deletes its items with batched
BatchWriteItem calls, resubmitting unprocessed requests.
*/
package ddb
