/*
Package config loads indexregistry settings.

Values are layered, later sources overriding earlier ones:

 1. built-in defaults
 2. an optional YAML file
 3. variables from .env files (godotenv; existing environment wins)
 4. INDEXREGISTRY_* environment variables

Example YAML:

	backend: opensearch
	addresses:
	  - https://search.internal:9200
	username: registry
	log_level: debug
*/
package config
