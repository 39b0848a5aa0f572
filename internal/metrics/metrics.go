package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	pipelinesLaunched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subsh",
		Name:      "pipelines_launched_total",
		Help:      "Total number of command pipelines launched, by capture mode.",
	}, []string{"captured"})

	stageExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subsh",
		Name:      "stage_exits_total",
		Help:      "Total number of pipeline stage completions by executor kind and outcome.",
	}, []string{"kind", "outcome"})

	pipelineSuspensions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsh",
		Name:      "pipeline_suspensions_total",
		Help:      "Total number of pipelines stopped by a terminal-control signal.",
	})

	pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "subsh",
		Name:      "pipeline_duration_seconds",
		Help:      "Wall-clock duration of pipelines from launch to end.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subsh",
		Name:      "build_info",
		Help:      "Build metadata for the running subsh binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(pipelinesLaunched, stageExits, pipelineSuspensions, pipelineDuration, buildInfo)
}

// Registry returns the Prometheus registry containing all subsh metrics.
func Registry() *prometheus.Registry {
	return registry
}

// PipelineLaunched records a pipeline launch under the given capture mode.
func PipelineLaunched(captured string) {
	pipelinesLaunched.WithLabelValues(captured).Inc()
}

// StageExited records a stage completion. A negative return code indicates
// termination by a signal.
func StageExited(kind string, returncode int) {
	outcome := "ok"
	switch {
	case returncode < 0:
		outcome = "signal"
	case returncode > 0:
		outcome = "error"
	}
	stageExits.WithLabelValues(kind, outcome).Inc()
}

// PipelineSuspended records a pipeline stopped by a terminal-control signal.
func PipelineSuspended() {
	pipelineSuspensions.Inc()
}

// ObservePipelineDuration records a pipeline's launch-to-end duration.
func ObservePipelineDuration(d time.Duration) {
	pipelineDuration.Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
