// Package config loads and validates the parlord YAML configuration.
//
// Configuration files support ${ENV_VAR} expansion so secrets like the
// provider API key can live in the environment:
//
//	database:
//	  path: /var/lib/parlord/parlor.db
//	logging:
//	  level: info
//	  format: text
//	providers:
//	  endpoint: https://apic.ohmygpt.com/
//	  api_key: ${PARLOR_API_KEY}
//	  default_model: claude-2.1
//	  temperature: 1.0
//	  max_tokens: 1024
//	render:
//	  enabled: false
//
// Load applies defaults for the model, temperature, and token budget before
// validating required fields.
package config
