// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Command server runs verwerkingenlog, the processing action audit log.

Applications report every processing action on personal data to the operator
host. Each action is validated, copied to the backup sink, queued and
acknowledged; a consumer then derives the index keys and upserts the record
into the badger record store. Data subjects read back which of their data was
processed through the access (inzage) host.

# Process Layout

	verwerkingenlog
	├── storage-layer     record-store-gc, backup-pruner
	├── messaging-layer   nats-server (embedded), watermill-router, queue-stats, queue-auto-redrive
	└── api-layer         operator-http (:8080), access-http (:8081)

Initialization order:

 1. Configuration: koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog, JSON or console
 3. Record store and durable queue (badger)
 4. Backup sink (local directory or S3)
 5. Transport (embedded badger queue or NATS JetStream)
 6. Processor, intake, query and inzage services
 7. Admission (Casbin policy, SHA3-hashed key ring) and the chi routers
 8. Supervisor tree (suture v4)

# Configuration

	Priority: Environment variables > Config file > Defaults

The config file is read from CONFIG_PATH or ./config.yaml. Common variables:

	OPERATOR_ADDR=:8080          operator host
	ACCESS_ADDR=:8081            access (inzage) host
	AUTH_OPERATOR_KEYS=k1,k2     keys admitted on the operator host
	AUTH_INZAGE_KEYS=k3          keys admitted on the access host
	STORE_PATH=/data/records
	QUEUE_BACKEND=badger         badger or nats
	QUEUE_MAX_DELIVERIES=5       deliveries before a message is dead-lettered
	BACKUP_BACKEND=local         local or s3
	BACKUP_S3_BUCKET=...
	LOG_LEVEL=info               trace, debug, info, warn, error
	LOG_FORMAT=json              json or console

Changes to logging.level and logging.verbose_sensitive in the config file
are applied without a restart. Environment variables still take precedence.

# Signals

SIGINT and SIGTERM cancel the supervisor tree. Listeners drain in-flight
requests for up to HTTP_SHUTDOWN_TIMEOUT, the consumer finishes its current
message, and the queue and record store are closed last.

# Example

	export AUTH_OPERATOR_KEYS=$(openssl rand -hex 24)
	export AUTH_INZAGE_KEYS=$(openssl rand -hex 24)
	export STORE_PATH=/var/lib/verwerkingenlog/records
	export QUEUE_PATH=/var/lib/verwerkingenlog/queue
	export BACKUP_PATH=/var/lib/verwerkingenlog/backup
	./verwerkingenlog
*/
package main
