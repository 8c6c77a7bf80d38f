package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

const (
	transcriptExcerptLen = 500
	maxPromptFiles       = 3
)

// LLMClient is the chat-completion surface the content generator needs.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// ContentService turns recording metadata into announcement copy. The model
// path is best-effort: any request, status or parse failure silently degrades
// to the deterministic local fallback, so Generate never fails.
type ContentService struct {
	llm   LLMClient
	model string
	log   *slog.Logger
}

func NewContentService(llm LLMClient, model string, log *slog.Logger) (*ContentService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ContentService{llm: llm, model: model, log: log}, nil
}

// Generate produces title, description and tags for the recording. Both the
// model path and the fallback path return the same shape within the same
// length limits, so callers never need to know which one ran.
func (s *ContentService) Generate(ctx context.Context, meta *domain.RecordingMetadata, topicHint string) domain.GeneratedContent {
	raw, err := s.llm.Chat(ctx, s.model, buildContentMessages(meta, topicHint))
	if err != nil {
		s.log.Warn("model call failed, using fallback generator", "err", err)
		return fallbackContent(meta, topicHint)
	}

	content, err := parseGeneratedContent(raw)
	if err != nil {
		s.log.Warn("model response unusable, using fallback generator", "err", err)
		return fallbackContent(meta, topicHint)
	}
	return content.Clamp()
}

const contentSystemPrompt = `あなたは教育コンテンツの専門家です。Zoomの録画情報から、日本語で魅力的な講義タイトルと説明文を生成してください。

出力は以下のJSON形式で返してください：
{
    "title": "魅力的な講義タイトル（50文字以内）",
    "description": "講義の概要説明（200-300文字）",
    "tags": ["キーワード1", "キーワード2", "キーワード3"]
}

要件：
- タイトルは興味を引く表現にする
- 説明は具体的で価値がわかる内容
- タグは関連するキーワード3-5個
- すべて日本語で記述
- Discord投稿に適した形式`

func buildContentMessages(meta *domain.RecordingMetadata, topicHint string) []domain.ChatMessage {
	topic := meta.Topic
	if topic == "" {
		topic = topicHint
	}
	if topic == "" {
		topic = "N/A"
	}
	startTime := meta.StartTime
	if startTime == "" {
		startTime = "N/A"
	}

	parts := []string{
		"以下のZoom録画情報から、講義のタイトルと説明を生成してください：",
		"",
		"ミーティングトピック: " + topic,
		"開始時刻: " + startTime,
		fmt.Sprintf("録画時間: %d 分", meta.DurationMinutes),
		fmt.Sprintf("録画ファイル数: %d", meta.FileCount),
	}

	if meta.Transcript != "" {
		parts = append(parts,
			"",
			"トランスクリプト（抜粋）:",
			domain.TruncateRunes(meta.Transcript, transcriptExcerptLen)+"...",
		)
	}

	if len(meta.Files) > 0 {
		parts = append(parts, "", "録画ファイル情報:")
		for i, f := range meta.Files {
			if i == maxPromptFiles {
				break
			}
			fileType := f.FileType
			if fileType == "" {
				fileType = "N/A"
			}
			sizeMB := float64(f.FileSizeBytes) / (1024 * 1024)
			parts = append(parts, fmt.Sprintf("- %s (%.1fMB)", fileType, sizeMB))
		}
	}

	parts = append(parts,
		"",
		"この情報を基に、教育的価値を強調した魅力的なタイトルと説明文を日本語で生成してください。",
	)

	return []domain.ChatMessage{
		{Role: "system", Content: contentSystemPrompt},
		{Role: "user", Content: strings.Join(parts, "\n")},
	}
}

// parseGeneratedContent extracts the outermost {...} block from the model
// output and accepts it only when both title and description are non-empty.
func parseGeneratedContent(raw string) (domain.GeneratedContent, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return domain.GeneratedContent{}, errors.New("usecase: no JSON object in model output")
	}

	var content domain.GeneratedContent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &content); err != nil {
		return domain.GeneratedContent{}, fmt.Errorf("usecase: decode model output: %w", err)
	}
	if strings.TrimSpace(content.Title) == "" || strings.TrimSpace(content.Description) == "" {
		return domain.GeneratedContent{}, errors.New("usecase: model output missing title or description")
	}
	if content.Tags == nil {
		content.Tags = []string{}
	}
	return content, nil
}

// topicCategory is one row of the fallback keyword table. The table is
// checked top to bottom and the first match wins, so the priority order is
// part of the contract.
type topicCategory struct {
	keywords []string
	emoji    string
	tag      string
}

var topicCategories = []topicCategory{
	{keywords: []string{"講座", "講義", "course", "lecture"}, emoji: "📚", tag: "講義"},
	{keywords: []string{"セミナー", "ワークショップ", "seminar", "workshop"}, emoji: "🎓", tag: "セミナー"},
	{keywords: []string{"ミーティング", "会議", "meeting"}, emoji: "💼", tag: "ミーティング"},
}

const defaultTopicEmoji = "🎥"

func classifyTopic(topic string) (emoji, tag string) {
	lowered := strings.ToLower(topic)
	for _, cat := range topicCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lowered, kw) {
				return cat.emoji, cat.tag
			}
		}
	}
	return defaultTopicEmoji, ""
}

// fallbackContent synthesizes announcement copy without the model. Output is
// deterministic for a given recording.
func fallbackContent(meta *domain.RecordingMetadata, topicHint string) domain.GeneratedContent {
	topic := meta.Topic
	if topic == "" {
		topic = topicHint
	}
	if topic == "" {
		topic = "録画"
	}

	emoji, categoryTag := classifyTopic(topic)

	description := fmt.Sprintf("「%s」の録画です。収録時間は約%d分です。ぜひご視聴ください。", topic, meta.DurationMinutes)
	if meta.DurationMinutes > 60 {
		description += "長編のため、時間のあるときにじっくりご覧いただくのがおすすめです。"
	}

	tags := []string{"lecture", "recording"}
	if categoryTag != "" {
		tags = append(tags, categoryTag)
	}

	return domain.GeneratedContent{
		Title:       emoji + " " + topic,
		Description: description,
		Tags:        tags,
	}.Clamp()
}
