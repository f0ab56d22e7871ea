// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package config loads and validates the service configuration.

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, ./config.yaml or /etc/verwerkingenlog/config.yaml
 3. Environment variables

Only environment variables listed in envMappings are read. Admission keys
and CORS origins accept comma-separated lists:

	AUTH_OPERATOR_KEYS=key-one-0123456789,key-two-0123456789
	AUTH_INZAGE_KEYS=inzage-key-0123456789

# Example

	server:
	  operator_addr: ":8080"
	  access_addr: ":8081"
	queue:
	  backend: badger
	  max_deliveries: 3
	backup:
	  backend: s3
	  s3:
	    bucket: verwerkingen-backup
	    endpoint: http://minio:9000

Load validates the result before returning it; a service never starts with a
configuration that failed Validate.
*/
package config
