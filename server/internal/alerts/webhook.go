package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// slackMessage is the incoming-webhook body Slack accepts.
type slackMessage struct {
	Text string `json:"text"`
}

// teamsCard is a legacy Office 365 connector MessageCard.
type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []teamsSection `json:"sections,omitempty"`
}

type teamsSection struct {
	ActivityTitle string `json:"activityTitle"`
	Text          string `json:"text"`
}

// payloadFor builds the JSON body for one webhook type.
func payloadFor(kind string, a *Alert) (interface{}, bool) {
	switch kind {
	case "slack":
		return slackPayload(a), true
	case "teams":
		return teamsPayload(a), true
	case "http":
		return map[string]*Alert{"alert": a}, true
	}
	return nil, false
}

func slackPayload(a *Alert) slackMessage {
	var b strings.Builder
	if a.State == "resolved" {
		fmt.Fprintf(&b, "*[RESOLVED]* %s on machine %d", a.RuleName, a.MachineID)
		return slackMessage{Text: b.String()}
	}
	fmt.Fprintf(&b, "*%s* %s", severityLabel(a.Severity), a.Message)
	if a.Action != "" {
		b.WriteString("\nRecommended action: ")
		b.WriteString(a.Action)
	}
	return slackMessage{Text: b.String()}
}

func teamsPayload(a *Alert) teamsCard {
	card := teamsCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: severityColor(a.Severity),
		Summary:    a.RuleName,
		Title:      fmt.Sprintf("Sentinel alert: %s (machine %d)", a.RuleName, a.MachineID),
		Text:       a.Message,
	}
	if a.State == "resolved" {
		card.Title = "[RESOLVED] " + card.Title
	}
	if a.Action != "" {
		card.Sections = []teamsSection{{ActivityTitle: "Recommended action", Text: a.Action}}
	}
	return card
}

// deliver pushes a to every webhook whose URL resolves. Failures are logged
// and never reach the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		payload, ok := payloadFor(wh.Type, a)
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}
		body, err := json.Marshal(payload)
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type, "rule", a.RuleName, "machine", a.MachineID, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

func (e *Engine) post(url string, body []byte) error {
	resp, err := e.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

var severityLabels = map[string]string{"critical": "[CRITICAL]", "warning": "[WARNING]"}

func severityLabel(s string) string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return "[INFO]"
}

// Card accent colours, hex without '#'.
var severityColors = map[string]string{"critical": "FF4F6A", "warning": "FFAB40"}

func severityColor(s string) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return "00D4FF"
}
