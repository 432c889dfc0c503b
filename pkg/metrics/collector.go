// Package metrics exposes Prometheus counters and gauges for the decode,
// synchronize, and record pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds every metric this SDK publishes, registered against a
// private registry so embedding applications can choose whether and how
// to expose it.
type Collector struct {
	Registry *prometheus.Registry

	PacketsDecoded   prometheus.Counter
	FramesRealigned  prometheus.Counter
	GapFillsEmitted  prometheus.Counter
	SamplesRecorded  prometheus.Counter
	ValidationBuffer *prometheus.GaugeVec
}

// NewCollector builds a Collector with a fresh registry and registers every
// metric on it.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,
		PacketsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neuroplay",
			Name:      "packets_decoded_total",
			Help:      "Total BLE notification packets successfully decoded.",
		}),
		FramesRealigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neuroplay",
			Name:      "frames_realigned_total",
			Help:      "Total misaligned lead packets dropped from the frame queue to realign to a frame boundary.",
		}),
		GapFillsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neuroplay",
			Name:      "gap_fills_emitted_total",
			Help:      "Total zero-filled rows emitted by the sample-rate synchronizer to cover a timing gap.",
		}),
		SamplesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neuroplay",
			Name:      "samples_recorded_total",
			Help:      "Total sample rows appended to an active recording.",
		}),
		ValidationBuffer: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "neuroplay",
			Name:      "validation_buffer_fill",
			Help:      "Current fill level of the per-device channel-quality validation buffer.",
		}, []string{"device"}),
	}

	reg.MustRegister(c.PacketsDecoded, c.FramesRealigned, c.GapFillsEmitted, c.SamplesRecorded, c.ValidationBuffer)
	return c
}
