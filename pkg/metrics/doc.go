/*
Package metrics exposes Prometheus metrics for docker-dns.

Metrics cover the three moving parts of the system:

	docker_dns_queries_total{type}            DNS queries received
	docker_dns_answers_total{source}          answers by origin: table, upstream, none
	docker_dns_upstream_latency_seconds       upstream resolution latency
	docker_dns_runtime_events_total{action}   runtime events processed
	docker_dns_event_errors_total             events that failed processing
	docker_dns_records                        current name table size
	docker_dns_record_mutations_total{kind}   table mutations applied

All metrics register in init(). The Collector keeps the table gauges current
by subscribing to the mutation broker, so the table itself never imports
prometheus. Handler() serves the standard /metrics endpoint when a metrics
address is configured.
*/
package metrics
