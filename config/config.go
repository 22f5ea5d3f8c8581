package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Telegram  TelegramConfig
	Assets    AssetsConfig
	SBP       SBPConfig
	AI        AIConfig
	Demo      DemoConfig
	Brand     BrandConfig
	Broadcast BroadcastConfig
	Heartbeat HeartbeatConfig
	Webhook   WebhookConfig
	Store     StoreConfig

	Debug bool `env:"DEBUG" envDefault:"false"`
}

type TelegramConfig struct {
	Token   string `env:"BOT_TOKEN,required"`
	AdminID int64  `env:"ADMIN_ID" envDefault:"0"`
}

// AssetsConfig carries per-asset Telegram file_ids and fallback URLs.
// A file_id is preferred; a URL is handed to Telegram directly so the
// service itself never downloads the file.
type AssetsConfig struct {
	PromptsFileID      string `env:"PDF_PROMPTS_FILE_ID"`
	PromptsURL         string `env:"PDF_PROMPTS_URL"`
	GuideFileID        string `env:"PDF_GUIDE_FILE_ID"`
	GuideURL           string `env:"PDF_GUIDE_URL"`
	PresentationFileID string `env:"PDF_PRESENTATION_FILE_ID"`
	PresentationURL    string `env:"PDF_PRESENTATION_URL"`
	BotTemplateFileID  string `env:"BOT_TEMPLATE_FILE_ID"`
	BotTemplateURL     string `env:"BOT_TEMPLATE_URL"`

	// URLRetry is how many times the direct-URL tier is attempted before the
	// resolver degrades to a plain text message with the link.
	URLRetry int `env:"DELIVERY_URL_RETRY" envDefault:"1"`
}

type SBPConfig struct {
	QRFileID      string `env:"SBP_QR_FILE_ID"`
	QRURL         string `env:"SBP_QR_URL"`
	PriceRub      int    `env:"SBP_PRICE_RUB" envDefault:"3500"`
	CommentPrefix string `env:"SBP_COMMENT_PREFIX" envDefault:"Order#"`
	RecipientName string `env:"SBP_RECIPIENT_NAME"`
}

type AIConfig struct {
	APIKey      string `env:"OPENAI_API_KEY"`
	BaseURL     string `env:"OPENAI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model       string `env:"OPENAI_MODEL" envDefault:"openai/gpt-4o-mini"`
	MaxHistory  int    `env:"AI_MAX_HISTORY" envDefault:"6"`
	UserPrompt  string `env:"AI_SYSTEM_PROMPT_USER_KIT" envDefault:"Ты — дружелюбный ИИ-консультант набора «{BRAND_NAME}». Отвечай кратко, по делу и по-русски. Помогаешь с получением материалов, установкой бота, оплатой и базовым маркетингом. Если нужна поддержка человека — дай ссылку {BRAND_SUPPORT_TG}. В конце сложных ответов предлагай 3 шага «что сделать дальше»."`
	AdminPrompt string `env:"AI_SYSTEM_PROMPT_ADMIN_KIT" envDefault:"Ты — техничный помощник владельца «{BRAND_NAME}». Даёшь точные подсказки по логике выдачи файлов, кэшу file_id, рассылке и JSON-базе paid_users.json и kit_assets.json. Если видишь проблему — предложи конкретный патч."`
	UniPrompt   string `env:"AI_SYSTEM_PROMPT_UNIVERSAL" envDefault:"Ты профессиональный AI-ассистент-исполнитель. Помогаешь пользователю создавать тексты, описания, идеи, стратегии и любые материалы. Пиши по-русски, структурно, по делу. Предлагай чёткие шаги и готовые шаблоны."`
}

type DemoConfig struct {
	Enabled     bool `env:"DEMO_AI_ENABLED" envDefault:"true"`
	DailyLimit  int  `env:"DEMO_AI_DAILY_LIMIT" envDefault:"5"`
	CooldownSec int  `env:"DEMO_AI_COOLDOWN_SEC" envDefault:"15"`
}

type BrandConfig struct {
	Name      string `env:"BRAND_NAME" envDefault:"AI Business Kit"`
	Owner     string `env:"BRAND_OWNER" envDefault:"Owner"`
	URL       string `env:"BRAND_URL" envDefault:"https://example.com"`
	SupportTG string `env:"BRAND_SUPPORT_TG" envDefault:"@support"`
	CreatedAt string `env:"BRAND_CREATED_AT" envDefault:"N/A"`
}

type BroadcastConfig struct {
	VerifiedOnly bool `env:"BROADCAST_VERIFIED_ONLY" envDefault:"true"`
}

type HeartbeatConfig struct {
	Enabled     bool  `env:"HEARTBEAT_ENABLED" envDefault:"true"`
	IntervalSec int   `env:"HEARTBEAT_INTERVAL_SEC" envDefault:"1800"`
	Immediate   bool  `env:"HEARTBEAT_IMMEDIATE" envDefault:"false"`
	ChatID      int64 `env:"HEARTBEAT_CHAT_ID" envDefault:"0"` // 0 = admin
}

type WebhookConfig struct {
	Enabled bool   `env:"WEBHOOK_ENABLED" envDefault:"false"`
	BaseURL string `env:"WEBHOOK_BASE_URL"`
	Secret  string `env:"WEBHOOK_SECRET" envDefault:"secret"`
	Port    int    `env:"PORT" envDefault:"10000"`
}

type StoreConfig struct {
	DataDir    string `env:"DATA_DIR" envDefault:"."`
	UsersFile  string `env:"DATA_FILE"`
	AssetsFile string `env:"ASSETS_FILE"`
}

func Load() (*Config, error) {
	// .env is optional; in production the environment is set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Heartbeat.ChatID == 0 {
		cfg.Heartbeat.ChatID = cfg.Telegram.AdminID
	}
	return cfg, nil
}
