package dialogs

import (
	"fmt"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/textutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
)

const stateAlertList dialog.State = "list"

// newAlertsDialog renders and consumes pending alerts: rejections first with
// their moderator comments, then approvals, then finished video cuts.
func newAlertsDialog(deps Deps) (*dialog.Dialog, error) {
	type alertsView struct {
		Body  string
		Empty bool
	}

	screen := &dialog.Screen{
		State: stateAlertList,
		Getter: func(c *dialog.Ctx) (any, error) {
			var b strings.Builder
			for _, kind := range []state.AlertKind{
				state.AlertPublicationRejected,
				state.AlertPublicationApproved,
				state.AlertVideoGenerated,
			} {
				alerts, err := c.States().ConsumeAlerts(c.User.ID, kind)
				if err != nil {
					return nil, err
				}
				if len(alerts) == 0 {
					continue
				}
				switch kind {
				case state.AlertPublicationRejected:
					fmt.Fprintf(&b, "❌ <b>Отклонено модератором: %d</b>\n", len(alerts))
					for _, a := range alerts {
						if comment, ok := a.Payload["comment"].(string); ok && comment != "" {
							fmt.Fprintf(&b, "— %s\n", comment)
						}
					}
					b.WriteString("\n")
				case state.AlertPublicationApproved:
					word := textutil.PublicationWord(len(alerts))
					fmt.Fprintf(&b, "✅ Одобрено и опубликовано: %d %s\n", len(alerts), word)
					for _, a := range alerts {
						if link, ok := a.Payload["link"].(string); ok && link != "" {
							fmt.Fprintf(&b, "— %s\n", link)
						}
					}
					b.WriteString("\n")
				case state.AlertVideoGenerated:
					word := textutil.VideoWord(len(alerts))
					fmt.Fprintf(&b, "🎬 Готово %d %s — смотрите в разделе нарезок.\n\n", len(alerts), word)
				}
			}
			body := strings.TrimSpace(b.String())
			return alertsView{Body: body, Empty: body == ""}, nil
		},
		Template: dialog.Tmpl("alerts", `<b>Уведомления</b>
{{if .Empty}}
Новых уведомлений нет.
{{- else}}

{{.Body}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "to_menu", Label: "🏠 В меню",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	return dialog.NewDialog(DialogAlerts, stateAlertList, screen)
}
