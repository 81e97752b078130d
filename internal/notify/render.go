package notify

import (
	"fmt"
	"time"

	"github.com/mayvqt/StatusBot/internal/store"
)

// Renderer turns a store snapshot into the chat summary. This is the only
// place local time appears; all internal math stays UTC.
type Renderer struct {
	Title string
}

func NewRenderer(title string) *Renderer {
	if title == "" {
		title = "Service Status"
	}
	return &Renderer{Title: title}
}

func (r *Renderer) Render(snapshot []store.Status, now time.Time) Summary {
	s := Summary{
		Title: fmt.Sprintf("**%s** — updated %s", r.Title, now.Local().Format("2006-01-02 15:04:05 MST")),
	}
	if len(snapshot) == 0 {
		s.Lines = append(s.Lines, "_no services monitored_")
		return s
	}
	for _, entry := range snapshot {
		s.Lines = append(s.Lines, renderLine(entry))
	}
	return s
}

func renderLine(entry store.Status) string {
	marker := "🔴"
	state := "down"
	if entry.Online {
		marker = "🟢"
		state = "up"
	}

	line := fmt.Sprintf("%s **%s** — %s, %.2f%% uptime (%d checks)",
		marker, entry.Name, state, entry.UptimePercent, entry.TotalChecks)

	if !entry.Online && !entry.LastChange.IsZero() {
		line += fmt.Sprintf(", since %s", entry.LastChange.Local().Format("2006-01-02 15:04 MST"))
	}
	return line
}

// Text flattens a summary into the single message body the sink sends.
func (s Summary) Text() string {
	out := s.Title
	for _, line := range s.Lines {
		out += "\n" + line
	}
	return out
}
