// Copyright 2026 The Yamabiko Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yamabiko

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the plain prometheus.Collectors a Collection exposes. A
// caller registers these with their own registry; the package never
// registers anything globally and never starts a metrics server, since
// doing so would be a CLI/front-end concern.
type metrics struct {
	writesTotal             prometheus.Counter
	readsTotal              *prometheus.CounterVec
	replicationPushesTotal  *prometheus.CounterVec
	indexEntriesTotal       *prometheus.GaugeVec
	transactionAppliesTotal *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		writesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yamabiko_writes_total",
			Help: "Total number of successful write operations.",
		}),
		readsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yamabiko_reads_total",
			Help: "Total number of read operations, partitioned by cache outcome.",
		}, []string{"outcome"}),
		replicationPushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yamabiko_replication_pushes_total",
			Help: "Total number of replication push attempts, partitioned by remote and result.",
		}, []string{"remote", "result"}),
		indexEntriesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yamabiko_index_entries_total",
			Help: "Current number of entries in a secondary index.",
		}, []string{"index"}),
		transactionAppliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yamabiko_transaction_applies_total",
			Help: "Total number of transaction applies, partitioned by resolution policy and result.",
		}, []string{"resolution", "result"}),
	}
}

// Collectors returns every metric as a prometheus.Collector, for a caller
// to register with its own registry.
func (m *metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.writesTotal,
		m.readsTotal,
		m.replicationPushesTotal,
		m.indexEntriesTotal,
		m.transactionAppliesTotal,
	}
}
