package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/alerts"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/employee"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/organization"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/payment"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/channelreader/gotdreader"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialogs"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/chathistory"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/logutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/llm"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/providers/claude"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/providers/openai"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport/tgbot"
)

const consumerRestartDelay = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: long-poll Telegram and consume moderation alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(viper.GetString("telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via %s_TELEGRAM_BOT_TOKEN)", envPrefix)
			}

			dataDir := viper.GetString("data_dir")
			if dataDir == "" {
				dataDir = "./data"
			}

			states, err := state.NewStore(state.StoreOptions{Dir: filepath.Join(dataDir, "state")})
			if err != nil {
				return err
			}
			histories, err := chathistory.NewStore(chathistory.StoreOptions{Dir: filepath.Join(dataDir, "chats")})
			if err != nil {
				return err
			}

			contentClient := content.New(requireURL("backend.content_url"))
			organizationClient := organization.New(requireURL("backend.organization_url"))
			employeeClient := employee.New(requireURL("backend.employee_url"))
			paymentClient := payment.New(requireURL("backend.payment_url"))

			editorSvc := editor.NewService(contentClient, paymentClient, logger)

			var llmClient llm.Client
			switch provider := viper.GetString("llm.provider"); provider {
			case "", "claude":
				c := claude.New(viper.GetString("claude.base_url"), viper.GetString("claude.api_key"))
				if rate := viper.GetFloat64("llm.usd_to_rub"); rate > 0 {
					c.USDToRUB = rate
				}
				llmClient = c
			case "openai":
				c := openai.New(viper.GetString("openai.base_url"), viper.GetString("openai.api_key"))
				if rate := viper.GetFloat64("llm.usd_to_rub"); rate > 0 {
					c.USDToRUB = rate
				}
				llmClient = c
			default:
				return fmt.Errorf("unknown llm.provider %q", provider)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reader := gotdreader.New(gotdreader.Config{
				APIID:       viper.GetInt("telegram.api_id"),
				APIHash:     viper.GetString("telegram.api_hash"),
				SessionPath: filepath.Join(dataDir, "gotd-session.json"),
			}, logger)
			if err := reader.Start(ctx); err != nil {
				return fmt.Errorf("channel reader: %w", err)
			}

			model := viper.GetString("claude.model")
			if model == "" {
				model = "claude-sonnet-4-20250514"
			}
			fallback := viper.GetString("claude.fallback_model")
			if fallback == "" {
				fallback = "claude-3-5-haiku-latest"
			}
			briefOrch := brief.New(brief.Options{
				LLM:            llmClient,
				History:        histories,
				Channels:       reader,
				Tests:          contentClient,
				Logger:         logger,
				Model:          model,
				FallbackModel:  fallback,
				MaxTokens:      viper.GetInt("claude.max_tokens"),
				ThinkingTokens: viper.GetInt("claude.thinking_tokens"),
				PostsLimit:     viper.GetInt("brief.posts_limit"),
			})

			bot, err := tgbot.New(token)
			if err != nil {
				return err
			}
			logger.Info("telegram_bot_authorized", "username", bot.Self())

			registry := dialog.NewRegistry()
			err = dialogs.Register(registry, dialogs.Deps{
				Content:       contentClient,
				Editor:        editorSvc,
				Employees:     employeeClient,
				Organizations: organizationClient,
				Brief:         briefOrch,
				History:       histories,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			runtime, err := dialog.NewRuntime(dialog.Options{
				Registry:          registry,
				Transport:         bot,
				States:            states,
				Logger:            logger,
				EntryDialog:       dialogs.DialogMainMenu,
				MaxConcurrency:    viper.GetInt("telegram.max_concurrency"),
				CoalesceThreshold: viper.GetInt("telegram.coalesce_threshold"),
			})
			if err != nil {
				return err
			}

			if amqpURL := viper.GetString("amqp.url"); amqpURL != "" {
				consumer := alerts.NewConsumer(alerts.ConsumerConfig{
					URL:        amqpURL,
					Exchange:   viper.GetString("amqp.exchange"),
					Queue:      viper.GetString("amqp.queue"),
					BindingKey: viper.GetString("amqp.binding_key"),
					Prefetch:   viper.GetInt("amqp.prefetch"),
				}, &alerts.Handler{States: states, Sink: bot, Logger: logger}, logger)
				go superviseConsumer(ctx, consumer, logger)
			} else {
				logger.Warn("alerts_consumer_disabled", "reason", "amqp.url is empty")
			}

			pollTimeout := viper.GetInt("telegram.poll_timeout_seconds")
			if pollTimeout <= 0 {
				pollTimeout = 30
			}

			logger.Info("serve_started", "data_dir", dataDir)
			updates := bot.Updates(pollTimeout)
			for {
				select {
				case <-ctx.Done():
					bot.StopUpdates()
					logger.Info("serve_stopped")
					return nil
				case update, ok := <-updates:
					if !ok {
						return nil
					}
					if ev, evOK := tgbot.EventFromUpdate(update); evOK {
						runtime.Dispatch(ctx, ev)
					}
				}
			}
		},
	}
	return cmd
}

// superviseConsumer restarts the alert consumer after connection-level
// failures until ctx is done.
func superviseConsumer(ctx context.Context, consumer *alerts.Consumer, logger *slog.Logger) {
	for {
		err := consumer.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Error("alerts_consumer_failed", "error", err, "restart_in", consumerRestartDelay.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(consumerRestartDelay):
		}
	}
}

func requireURL(key string) string {
	return strings.TrimRight(strings.TrimSpace(viper.GetString(key)), "/")
}
