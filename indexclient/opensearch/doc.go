// Package opensearch implements indexclient.Client on OpenSearch clusters.
package opensearch
