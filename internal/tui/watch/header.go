package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HealthState tracks the bot's reachability from /_health polling.
type HealthState struct {
	Connected bool
	Healthy   bool
	Latency   time.Duration
	LastCheck time.Time
}

// Pulse lights up on events and fades over ten seconds.
type Pulse struct {
	level     int
	lastEvent time.Time
}

const pulseDots = 5

func (p *Pulse) Hit(at time.Time) {
	p.level = pulseDots
	p.lastEvent = at
}

func (p *Pulse) Fade(now time.Time) {
	if p.level == 0 {
		return
	}
	elapsed := now.Sub(p.lastEvent)
	p.level = max(0, pulseDots-int(elapsed/(2*time.Second)))
}

func (p Pulse) Render(theme Theme) string {
	var sb strings.Builder
	for i := range pulseDots {
		if i < p.level {
			sb.WriteString(theme.PulseOn.Render("●"))
		} else {
			sb.WriteString(theme.PulseOff.Render("○"))
		}
	}
	return sb.String()
}

func renderHeader(target string, health HealthState, totals Counters, pending int, pulse Pulse, theme Theme, width int, now time.Time) string {
	innerWidth := width - 4

	status := theme.StatusOK.Render("HEALTHY")
	switch {
	case !health.Connected:
		status = theme.StatusFailed.Render("CONNECTING")
	case !health.Healthy:
		status = theme.StatusFailed.Render("DEGRADED")
	}

	title := fmt.Sprintf(" TODOIST-BOT WATCH  %s", theme.Dim.Render(target))
	clock := theme.Dim.Render(now.Format("15:04:05"))
	pad := max(1, innerWidth-lipgloss.Width(title)-lipgloss.Width(clock)-4)
	titleLine := title + strings.Repeat(" ", pad) + clock + " "

	statusLine := fmt.Sprintf(" %s  latency %s  pending %s",
		status,
		health.Latency.Round(time.Millisecond),
		theme.StatusPending.Render(fmt.Sprint(pending)),
	)

	totalsLine := fmt.Sprintf(" responded %d  deferred %d  followed up %d  failed %s  expired %s  %s",
		totals.Responded, totals.Deferred, totals.FollowedUp,
		theme.StatusFailed.Render(fmt.Sprint(totals.Failed)),
		theme.StatusFailed.Render(fmt.Sprint(totals.Expired)),
		pulse.Render(theme),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statusLine, totalsLine)
	return theme.Border.Width(innerWidth).Render(content)
}
