package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var embeddedLocales embed.FS

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// NewTranslations builds the bundle from the built-in English messages, the embedded
// locales and any active.*.toml found in localesDir (optional).
func NewTranslations(defaultLang string, localesDir string) (*Translations, error) {
	if defaultLang == "" {
		return nil, fmt.Errorf("language cannot be empty")
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	bundle.MustParseMessageFileBytes([]byte(defaultMessages), "default.en.toml")

	embedded, err := fs.Glob(embeddedLocales, "locales/active.*.toml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded locales: %w", err)
	}
	for _, file := range embedded {
		data, err := embeddedLocales.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading locale file %s: %w", file, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, filepath.Base(file)); err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}

	if localesDir != "" {
		files, err := filepath.Glob(filepath.Join(localesDir, "active.*.toml"))
		if err != nil {
			return nil, fmt.Errorf("error reading locales: %w", err)
		}
		for _, file := range files {
			if _, err := bundle.LoadMessageFile(file); err != nil {
				return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
			}
		}
	}

	return &Translations{
		bundle:   bundle,
		localize: i18n.NewLocalizer(bundle, defaultLang),
	}, nil
}

func (t *Translations) SetLanguage(lang string) error {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			t.localize = i18n.NewLocalizer(t.bundle, lang)
			return nil
		}
	}
	return fmt.Errorf("language '%s' not supported", lang)
}

func (t *Translations) GetMessage(messageID string, count int, templateData map[string]interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}

var defaultMessages = `
	[app_usage]
	other = "Review Subversion commits with an AI code reviewer"

	[flag_config]
	other = "Path to the config file or its parent directory"

	[flag_debug]
	other = "Enable debug logging"

	[flag_verbose]
	other = "Enable info logging"

	[flag_lang]
	other = "Language for CLI messages (en, es)"

	[flag_log_format]
	other = "Log format: pretty, text or json"

	[serve_usage]
	other = "Start the HTTP API server"

	[flag_addr]
	other = "Address to listen on"

	[server_listening]
	other = "Listening on {{.Addr}}"

	[server_stopped]
	other = "Server stopped"

	[log_usage]
	other = "List repository commits"

	[flag_page]
	other = "Page number, starting at 1"

	[flag_page_size]
	other = "Commits per page"

	[flag_start_revision]
	other = "Lowest revision of the range"

	[flag_end_revision]
	other = "Highest revision of the range"

	[flag_author]
	other = "Only commits by this author"

	[flag_keyword]
	other = "Only commits whose message or author contains this text"

	[flag_json]
	other = "Print JSON instead of text"

	[commits_header]
	other = "Page {{.Page}} of {{.TotalPages}} ({{.Total}} commits)"

	[no_commits]
	other = "No commits found"

	[show_usage]
	other = "Show a commit and its changed paths"

	[flag_diff]
	other = "Also print the diff of every file"

	[info_usage]
	other = "Show repository information"

	[review_usage]
	other = "Review one or more commits"

	[review_started]
	one = "Reviewing {{.Count}} commit..."
	other = "Reviewing {{.Count}} commits..."

	[review_completed]
	other = "Review {{.ID}} completed"

	[findings_count]
	one = "{{.Count}} finding"
	other = "{{.Count}} findings"

	[session_usage]
	other = "Inspect review sessions"

	[session_list_usage]
	other = "List recent review sessions"

	[session_show_usage]
	other = "Show a review session and its findings"

	[flag_limit]
	other = "Maximum number of entries"

	[rules_usage]
	other = "Manage review rules"

	[prompts_usage]
	other = "Manage system prompts"

	[list_usage]
	other = "List entries"

	[add_usage]
	other = "Add an entry"

	[remove_usage]
	other = "Remove an entry by id"

	[enable_usage]
	other = "Enable a rule by id"

	[disable_usage]
	other = "Disable a rule by id"

	[activate_usage]
	other = "Make a prompt the active one"

	[flag_name]
	other = "Unique name"

	[flag_content]
	other = "Text content"

	[flag_description]
	other = "Short description"

	[flag_disabled]
	other = "Create the rule disabled"

	[flag_activate]
	other = "Activate the prompt right away"

	[entry_saved]
	other = "Saved {{.Name}}"

	[entry_removed]
	other = "Removed {{.Name}}"

	[entry_enabled]
	other = "Enabled {{.Name}}"

	[entry_disabled]
	other = "Disabled {{.Name}}"

	[prompt_activated]
	other = "Activated {{.Name}}"

	[list_empty]
	other = "Nothing to show"

	[cache_usage]
	other = "Manage the review cache"

	[cache_clean_usage]
	other = "Delete every cached review"

	[cache_cleaned]
	other = "Cache cleaned"

	[missing_argument]
	other = "{{.Name}} is required"
	[token_usage]
	other = "Token usage"

	[usage_input]
	other = "input"

	[usage_output]
	other = "output"

	[usage_total]
	other = "total"

	[usage_cost]
	other = "Estimated cost"

	[usage_cache_hit]
	other = "Served from cache"

	[usage_duration]
	other = "Duration"

	[try_suggestion]
	other = "Try:"

	[error_details]
	other = "Details"

	[label_status]
	other = "Status"

	[label_provider]
	other = "Provider"

	[label_commits]
	other = "Commits"

	[label_started]
	other = "Started"

	[label_completed]
	other = "Completed"

	[label_error]
	other = "Error"

	[label_author]
	other = "Author"

	[label_date]
	other = "Date"

	[label_revision]
	other = "Revision"

	[label_url]
	other = "URL"

	[label_uuid]
	other = "UUID"

	[changed_paths]
	other = "Changed paths"

	[flag_expired]
	other = "Only delete entries older than the cache TTL"

	[config_usage]
	other = "Show or change the configuration"

	[config_show_usage]
	other = "Print the current configuration"

	[config_set_lang_usage]
	other = "Set the CLI language"

	[config_set_url_usage]
	other = "Set the Subversion repository URL"

	[config_set_ai_usage]
	other = "Choose the AI provider used for reviews"

	[flag_username]
	other = "Subversion username"

	[flag_password]
	other = "Subversion password"

	[flag_provider]
	other = "Provider: openai, gemini or mock"

	[flag_model]
	other = "Model name"

	[flag_api_key]
	other = "API key for the provider"

	[current_config]
	other = "Current configuration"

	[language_configured]
	other = "Language set to {{.Lang}}"

	[unsupported_language]
	other = "Unsupported language: {{.Lang}}"

	[config_saved]
	other = "Configuration saved to {{.Path}}"

	[label_config_file]
	other = "Config file"

	[label_language]
	other = "Language"

	[label_server]
	other = "Server"

	[label_model]
	other = "Model"

	[label_api_key]
	other = "API key"

	[label_store]
	other = "Store"

	[label_rate_limit]
	other = "Rate limit"

	[key_set]
	other = "set"

	[key_not_set]
	other = "not set"

	`
