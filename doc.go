/*
Package indexregistry keeps a registry of identifier-keyed values in a
search engine index, one index per section.

A Registry enforces registration semantics on top of an index client:
an identifier is registered once, replaced only while registered, and
unregistered only when present. Misuse is reported through the semantic
errors in the errors package rather than silently ignored.

Lifecycle:
  - New validates its dependencies and initiates the registry, opening or
    creating the section's index.
  - Register, Replace, Unregister, IsRegistered, Get and Content operate
    while the registry is active.
  - Destroy deletes the index and releases the section. Init may be called
    again afterwards.

Section names are case-insensitive and normalised to lower case:

	client, _ := elastic.NewClient(elastic.Config{Addresses: []string{"http://localhost:9200"}})
	events, err := indexregistry.New[Event](ctx, client, "Events",
	    indexregistry.WithLogger(slog.Default()),
	)
	if err != nil {
	    return err
	}
	if err := events.Register(ctx, "e1", Event{Name: "Conference"}); err != nil {
	    if errors.IsDuplicateRegistration(err) {
	        // already registered
	    }
	    return err
	}

Registries share an IndexTable to detect a second initiation of the same
section; each Registry owns a private table unless WithIndexTable is given.
*/
package indexregistry
