package dialogs

import (
	"strconv"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/textutil"
)

const stateMenu dialog.State = "menu"

type menuData struct {
	HasOrg      bool
	OrgName     string
	CanModerate bool
	AlertCount  int
	AlertWord   string
	AlertsOn    bool
}

var menuTemplate = dialog.Tmpl("main_menu", `<b>Главное меню</b>
{{if .HasOrg}}
Организация: <b>{{.OrgName}}</b>
{{- else}}
У вас пока нет организации. Пройдите короткий бриф, чтобы начать.
{{- end}}
{{- if gt .AlertCount 0}}

🔔 У вас {{.AlertCount}} {{.AlertWord}}.
{{- end}}`)

func newMainMenu(deps Deps) (*dialog.Dialog, error) {
	getter := func(c *dialog.Ctx) (any, error) {
		data := menuData{
			HasOrg:   c.User.OrganizationID != "",
			AlertsOn: c.User.CanShowAlerts,
		}
		if data.HasOrg {
			org, err := deps.Organizations.Get(c.Context, c.User.OrganizationID)
			if err != nil {
				c.Logger().Warn("menu_org_load_failed", "organization_id", c.User.OrganizationID, "error", err)
			} else {
				data.OrgName = org.Name
			}
			if c.User.AccountID != "" {
				if emp, err := deps.Employees.Get(c.Context, c.User.AccountID); err == nil {
					data.CanModerate = emp.Role.CanModerate()
				}
			}
		}
		if alerts, err := c.States().Alerts(c.User.ID); err == nil {
			data.AlertCount = len(alerts)
			data.AlertWord = textutil.AlertWord(len(alerts))
		}
		return data, nil
	}

	hasOrg := func(data any) bool { return data.(menuData).HasOrg }

	screen := &dialog.Screen{
		State:    stateMenu,
		Getter:   getter,
		Template: menuTemplate,
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "publications", Label: "📝 Публикации", When: hasOrg,
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogPublication, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "video_cuts", Label: "🎬 Видео-нарезки", When: hasOrg,
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogVideoCut, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "moderation", Label: "🛡 Модерация",
				When: func(data any) bool { return data.(menuData).CanModerate },
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogModeration, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "new_category", Label: "🗂 Новая рубрика", When: hasOrg,
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogCategory, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "alerts_open",
				LabelFn: func(data any) string {
					return "🔔 Уведомления (" + strconv.Itoa(data.(menuData).AlertCount) + ")"
				},
				When: func(data any) bool { return data.(menuData).AlertCount > 0 },
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogAlerts, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "create_org", Label: "🏢 Создать организацию",
				When: func(data any) bool { return !data.(menuData).HasOrg },
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogOrganization, "", dialog.StartNormal, nil)
				},
			},
			&dialog.Button{
				ID: "toggle_alerts",
				LabelFn: func(data any) string {
					if data.(menuData).AlertsOn {
						return "⚙️ Пуши: включены"
					}
					return "⚙️ Пуши: выключены"
				},
				When: hasOrg,
				OnClick: func(c *dialog.Ctx) error {
					st := c.User
					st.CanShowAlerts = !st.CanShowAlerts
					if err := c.SaveUser(st); err != nil {
						return err
					}
					if st.CanShowAlerts {
						c.Toast("Уведомления включены")
					} else {
						c.Toast("Уведомления выключены")
					}
					return nil
				},
			},
		},
	}

	return dialog.NewDialog(DialogMainMenu, stateMenu, screen)
}
