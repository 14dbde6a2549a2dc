// Package elastic implements indexclient.Client on Elasticsearch using the
// official go-elasticsearch v8 client. Writes request refresh=true unless
// Config.NoRefresh is set, so registrations are visible to the next lookup.
package elastic
