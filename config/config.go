package config

import (
	"encoding/json"
	"os"
	"time"
)

type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Roles    RolesConfig    `json:"roles"`
	Tickets  TicketsConfig  `json:"tickets"`
	Language LanguageConfig `json:"language"`
	Stats    StatsConfig    `json:"stats"`
	Welcome  WelcomeConfig  `json:"welcome"`
	Database DatabaseConfig `json:"database"`
}

type DiscordConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
}

// RolesConfig names the guild roles the bot provisions and checks.
type RolesConfig struct {
	Admin     string `json:"admin"`
	Moderator string `json:"moderator"`
	Member    string `json:"member"`
	Bot       string `json:"bot"`
	English   string `json:"english"`
	Russian   string `json:"russian"`
}

type TicketsConfig struct {
	CooldownSeconds int  `json:"cooldown_seconds"`
	PacingMillis    int  `json:"pacing_ms"`
	ArchiveSeconds  int  `json:"archive_delay_seconds"`
	SharedRegistry  bool `json:"shared_registry"`
}

type LanguageConfig struct {
	CooldownSeconds int    `json:"cooldown_seconds"`
	MessagesFile    string `json:"messages_file"`
}

type StatsConfig struct {
	Enabled       bool `json:"enabled"`
	UpdateSeconds int  `json:"update_seconds"`
}

type WelcomeConfig struct {
	DMEnabled bool `json:"dm_enabled"`
}

type DatabaseConfig struct {
	Driver  string        `json:"driver"`
	SQLite  SQLiteConfig  `json:"sqlite"`
	MongoDB MongoDBConfig `json:"mongodb"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Roles.Admin == "" {
		cfg.Roles.Admin = "Admin"
	}
	if cfg.Roles.Moderator == "" {
		cfg.Roles.Moderator = "Moderator"
	}
	if cfg.Roles.Member == "" {
		cfg.Roles.Member = "Member"
	}
	if cfg.Roles.Bot == "" {
		cfg.Roles.Bot = "Bot"
	}
	if cfg.Roles.English == "" {
		cfg.Roles.English = "English"
	}
	if cfg.Roles.Russian == "" {
		cfg.Roles.Russian = "Russian"
	}
	if cfg.Tickets.CooldownSeconds <= 0 {
		cfg.Tickets.CooldownSeconds = 5
	}
	if cfg.Tickets.PacingMillis <= 0 {
		cfg.Tickets.PacingMillis = 100
	}
	if cfg.Tickets.ArchiveSeconds <= 0 {
		cfg.Tickets.ArchiveSeconds = 5
	}
	if cfg.Language.CooldownSeconds <= 0 {
		cfg.Language.CooldownSeconds = 5
	}
	if cfg.Language.MessagesFile == "" {
		cfg.Language.MessagesFile = "lang.yml"
	}
	if cfg.Stats.UpdateSeconds <= 0 {
		cfg.Stats.UpdateSeconds = 10
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/bot.db"
	}
	return &cfg, nil
}

func (t TicketsConfig) Cooldown() time.Duration {
	return time.Duration(t.CooldownSeconds) * time.Second
}

func (t TicketsConfig) Pacing() time.Duration {
	return time.Duration(t.PacingMillis) * time.Millisecond
}

func (t TicketsConfig) ArchiveDelay() time.Duration {
	return time.Duration(t.ArchiveSeconds) * time.Second
}

func (l LanguageConfig) Cooldown() time.Duration {
	return time.Duration(l.CooldownSeconds) * time.Second
}

func (s StatsConfig) Interval() time.Duration {
	return time.Duration(s.UpdateSeconds) * time.Second
}

// Fixed naming tables for the bilingual server structure. These mirror
// the provisioned layout; lookups elsewhere go by these names, so they
// are constants rather than configuration.

const (
	CategoryServerStats       = "📊 SERVER STATS"
	CategoryLanguageSelection = "🌐 LANGUAGE SELECTION"

	CategoryENWelcome   = "👋 WELCOME"
	CategoryENCommunity = "💬 COMMUNITY"
	CategoryENTrading   = "💼 TRADING"
	CategoryENSupport   = "🛠️ SUPPORT & FEEDBACK"

	CategoryRUWelcome   = "👋 ДОБРО ПОЖАЛОВАТЬ"
	CategoryRUCommunity = "💬 СООБЩЕСТВО"
	CategoryRUTrading   = "💼 ТОРГОВЛЯ"
	CategoryRUSupport   = "🛠️ ПОДДЕРЖКА И ОТЗЫВЫ"
)

const (
	ChannelTotalMembersFmt  = "📊 Total Members: %d"
	ChannelOnlineMembersFmt = "🟢 Online Members: %d"
	StatTotalPrefix         = "📊 Total Members:"
	StatOnlinePrefix        = "🟢 Online Members:"

	ChannelChooseLanguage = "🌐-choose-language"

	ChannelENSupport = "🆘-support"
	ChannelRUSupport = "🆘-поддержка"
)

// ChannelSet is one category's worth of channels.
type ChannelSet struct {
	Category string
	Channels []string
}

// EnglishStructure lists the English categories in creation order.
func EnglishStructure() []ChannelSet {
	return []ChannelSet{
		{CategoryENWelcome, []string{"📢-announcements", "🟢-status", "🧠-read-me"}},
		{CategoryENCommunity, []string{"💬-general", "🎮-cs2-talk", "🎨-skin-chat", "📉-price-discussion", "📰-skin-news"}},
		{CategoryENTrading, []string{"💸-market", "🧍-looking-for", "🔍-price-check"}},
		{CategoryENSupport, []string{ChannelENSupport}},
	}
}

// RussianStructure lists the Russian categories in creation order.
func RussianStructure() []ChannelSet {
	return []ChannelSet{
		{CategoryRUWelcome, []string{"📢-объявления", "🟢-статус", "🧠-прочти-меня"}},
		{CategoryRUCommunity, []string{"💬-общий", "🎮-cs2-обсуждение", "🎨-скины-чат", "📉-обсуждение-цен", "📰-новости-скинов"}},
		{CategoryRUTrading, []string{"💸-рынок", "🧍-ищу-предмет", "🔍-проверка-цены"}},
		{CategoryRUSupport, []string{ChannelRUSupport}},
	}
}

// AllCategories returns every category name the bot manages.
func AllCategories() []string {
	names := []string{CategoryServerStats, CategoryLanguageSelection}
	for _, set := range EnglishStructure() {
		names = append(names, set.Category)
	}
	for _, set := range RussianStructure() {
		names = append(names, set.Category)
	}
	return names
}

// AllManagedChannels returns every channel name the bot manages,
// excluding the stat channels whose names carry live counts.
func AllManagedChannels() []string {
	names := []string{ChannelChooseLanguage}
	for _, set := range EnglishStructure() {
		names = append(names, set.Channels...)
	}
	for _, set := range RussianStructure() {
		names = append(names, set.Channels...)
	}
	return names
}
