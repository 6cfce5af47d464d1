// Package dialogs defines the bot's screens: main menu, publication editing,
// moderation, video cuts, the brief flows and the alert view. All dialogs
// share one dependency set and register into a single dialog.Registry.
package dialogs

import (
	"context"
	"log/slog"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/employee"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/organization"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/chathistory"
)

// Dialog ids.
const (
	DialogMainMenu     = "main_menu"
	DialogPublication  = "publication"
	DialogModeration   = "moderation"
	DialogVideoCut     = "video_cut"
	DialogOrganization = "organization"
	DialogCategory     = "category_brief"
	DialogAlerts       = "alerts"
)

// ContentService is the slice of the content backend the dialogs call.
type ContentService interface {
	Publications(ctx context.Context, organizationID string) ([]content.Publication, error)
	Categories(ctx context.Context, organizationID string) ([]content.Category, error)
	CreatePublication(ctx context.Context, pub content.Publication) (string, error)
	UpdatePublication(ctx context.Context, pub content.Publication) error
	PublishPublication(ctx context.Context, id string) (content.Publication, error)
	ModeratePublication(ctx context.Context, id string, status content.PublicationStatus, comment string) error
	SocialNetworks(ctx context.Context, organizationID string) ([]content.SocialNetwork, error)
	CreateCategory(ctx context.Context, cat content.Category) (string, error)
	UploadPublicationImage(ctx context.Context, id string, image []byte, filename string) error
	DeletePublicationImage(ctx context.Context, id string) error

	VideoCuts(ctx context.Context, organizationID string) ([]content.VideoCut, error)
	GenerateVideoCut(ctx context.Context, organizationID, creatorID, youtubeURL string) error
	UpdateVideoCut(ctx context.Context, cut content.VideoCut) error
	PublishVideoCut(ctx context.Context, id string) (content.VideoCut, error)
	ModerateVideoCut(ctx context.Context, id string, status content.PublicationStatus, comment string) error
}

// EditorService is the balance-gated generation service.
type EditorService interface {
	GenerateText(ctx context.Context, organizationID, categoryID, textReference string) (string, error)
	RegenerateText(ctx context.Context, organizationID, categoryID, text, prompt string) (string, error)
	CompressText(ctx context.Context, organizationID, categoryID, text string, hasImage bool) (string, error)
	GenerateImage(ctx context.Context, organizationID, categoryID, text, prompt string, reference *editor.UploadedImage) ([]string, error)
	EditImage(ctx context.Context, organizationID, prompt string, image editor.UploadedImage) ([]string, error)
	CombineImages(ctx context.Context, organizationID, categoryID string, buf *editor.CombineBuffer) ([]string, error)
	TranscribeAudio(ctx context.Context, organizationID string, audio []byte, filename string) (string, error)
	FetchImage(ctx context.Context, url string) (editor.UploadedImage, error)
}

type EmployeeService interface {
	Get(ctx context.Context, accountID string) (employee.Employee, error)
	Create(ctx context.Context, e employee.Employee) error
}

type OrganizationService interface {
	Create(ctx context.Context, org organization.Organization) (string, error)
	Get(ctx context.Context, id string) (organization.Organization, error)
}

// BriefService runs one turn of a brief conversation.
type BriefService interface {
	Step(ctx context.Context, sess *brief.Session, systemPrompt, userText string) (brief.Reply, error)
}

// HistoryService manages LLM chat histories for brief frames.
type HistoryService interface {
	Create(stateID string) (chathistory.Chat, error)
	Delete(chatID string) error
}

type Deps struct {
	Content       ContentService
	Editor        EditorService
	Employees     EmployeeService
	Organizations OrganizationService
	Brief         BriefService
	History       HistoryService
	Logger        *slog.Logger
}

// Register builds every dialog and adds it to the registry.
func Register(reg *dialog.Registry, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	builders := []func(Deps) (*dialog.Dialog, error){
		newMainMenu,
		newPublicationDialog,
		newModerationDialog,
		newVideoCutDialog,
		newOrganizationDialog,
		newCategoryDialog,
		newAlertsDialog,
	}
	for _, build := range builders {
		d, err := build(deps)
		if err != nil {
			return err
		}
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
