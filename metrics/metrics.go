package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "debate_draw"

// Metrics собирает счётчики жизненного цикла жеребьёвки. Нулевой указатель допустим:
// все методы тогда ничего не делают.
type Metrics struct {
	drawCommands     *prometheus.CounterVec
	matchupEntries   *prometheus.CounterVec
	scheduledDebates *prometheus.CounterVec
	publications     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		drawCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_commands_total",
			Help:      "Draw lifecycle commands by command and outcome.",
		}, []string{"command", "outcome"}),
		matchupEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matchup_entries_total",
			Help:      "Applied matchup edit entries by effect.",
		}, []string{"effect"}),
		scheduledDebates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_debates_total",
			Help:      "Debates processed by schedule assignment by outcome.",
		}, []string{"outcome"}),
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_publications_total",
			Help:      "Public draw publication attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.drawCommands, m.matchupEntries, m.scheduledDebates, m.publications)
	}
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) DrawCommand(command string, err error) {
	if m == nil {
		return
	}
	m.drawCommands.WithLabelValues(command, outcome(err)).Inc()
}

// MatchupEntries: effect - "paired", "deleted", "created" или "ignored".
func (m *Metrics) MatchupEntries(effect string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.matchupEntries.WithLabelValues(effect).Add(float64(n))
}

// ScheduledDebates: outcome - "scheduled", "skipped" или "malformed".
func (m *Metrics) ScheduledDebates(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.scheduledDebates.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) Publication(kind string, err error) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(kind, outcome(err)).Inc()
}
