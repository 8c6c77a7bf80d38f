package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

type mockLLM struct {
	response string
	err      error
	captured []domain.ChatMessage
	calls    int
}

func (m *mockLLM) Chat(_ context.Context, _ string, messages []domain.ChatMessage) (string, error) {
	m.calls++
	m.captured = messages
	return m.response, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleMeta() *domain.RecordingMetadata {
	return &domain.RecordingMetadata{
		UUID:            "abc123",
		Topic:           "Go講義 第3回",
		StartTime:       "2025-09-01T10:00:00Z",
		DurationMinutes: 45,
		FileCount:       2,
		ShareURL:        "https://zoom.us/rec/share/xyz",
		Files: []domain.RecordingFile{
			{FileType: "MP4", FileSizeBytes: 100 * 1024 * 1024},
			{FileType: "M4A", FileSizeBytes: 10 * 1024 * 1024},
		},
		Transcript: strings.Repeat("今日の講義ではGoの並行処理を扱います。", 50),
	}
}

func newContentService(t *testing.T, llm LLMClient) *ContentService {
	t.Helper()
	s, err := NewContentService(llm, "gpt-5", discardLogger())
	require.NoError(t, err)
	return s
}

func TestNewContentService_Validation(t *testing.T) {
	_, err := NewContentService(nil, "gpt-5", discardLogger())
	require.Error(t, err)
	_, err = NewContentService(&mockLLM{}, " ", discardLogger())
	require.Error(t, err)
}

func TestGenerate_ModelPath(t *testing.T) {
	llm := &mockLLM{response: `{"title":"🚀 Goの並行処理入門","description":"goroutineとchannelを学びます。","tags":["go","並行処理"]}`}
	s := newContentService(t, llm)

	out := s.Generate(context.Background(), sampleMeta(), "")
	require.Equal(t, "🚀 Goの並行処理入門", out.Title)
	require.Equal(t, "goroutineとchannelを学びます。", out.Description)
	require.Equal(t, []string{"go", "並行処理"}, out.Tags)
}

func TestGenerate_PromptContents(t *testing.T) {
	llm := &mockLLM{response: `{"title":"t","description":"d"}`}
	s := newContentService(t, llm)

	meta := sampleMeta()
	s.Generate(context.Background(), meta, "")

	require.Len(t, llm.captured, 2)
	require.Equal(t, "system", llm.captured[0].Role)
	require.Contains(t, llm.captured[0].Content, "JSON形式")

	user := llm.captured[1].Content
	require.Contains(t, user, "ミーティングトピック: Go講義 第3回")
	require.Contains(t, user, "録画時間: 45 分")
	require.Contains(t, user, "録画ファイル数: 2")
	require.Contains(t, user, "- MP4 (100.0MB)")
	require.Contains(t, user, "トランスクリプト（抜粋）")
	// The excerpt carries at most the first 500 runes of the transcript.
	require.Contains(t, user, domain.TruncateRunes(meta.Transcript, 500)+"...")
	require.NotContains(t, user, meta.Transcript)
}

func TestGenerate_PromptCapsFileSummaries(t *testing.T) {
	llm := &mockLLM{response: `{"title":"t","description":"d"}`}
	s := newContentService(t, llm)

	meta := sampleMeta()
	meta.Files = []domain.RecordingFile{
		{FileType: "MP4"}, {FileType: "M4A"}, {FileType: "CHAT"}, {FileType: "TRANSCRIPT"},
	}
	s.Generate(context.Background(), meta, "")

	user := llm.captured[1].Content
	require.Contains(t, user, "- CHAT")
	require.NotContains(t, user, "- TRANSCRIPT")
}

func TestGenerate_ExtractsJSONFromProse(t *testing.T) {
	llm := &mockLLM{response: "もちろんです。以下が生成結果です:\n```json\n{\"title\":\"t\",\"description\":\"d\",\"tags\":[]}\n```\nご確認ください。"}
	s := newContentService(t, llm)

	out := s.Generate(context.Background(), sampleMeta(), "")
	require.Equal(t, "t", out.Title)
	require.Equal(t, "d", out.Description)
}

func TestGenerate_TruncatesOversizedFields(t *testing.T) {
	title := strings.Repeat("あ", 150)
	desc := strings.Repeat("い", 600)
	llm := &mockLLM{response: `{"title":"` + title + `","description":"` + desc + `","tags":["1","2","3","4","5","6","7"]}`}
	s := newContentService(t, llm)

	out := s.Generate(context.Background(), sampleMeta(), "")
	require.Len(t, []rune(out.Title), domain.MaxTitleLen)
	require.Len(t, []rune(out.Description), domain.MaxDescriptionLen)
	require.Len(t, out.Tags, domain.MaxTags)
}

func TestGenerate_FallbackOnRequestError(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	s := newContentService(t, llm)

	out := s.Generate(context.Background(), sampleMeta(), "")
	require.NotEmpty(t, out.Title)
	require.NotEmpty(t, out.Description)
	require.NotEmpty(t, out.Tags)
}

func TestGenerate_FallbackOnMalformedJSON(t *testing.T) {
	cases := []string{
		"no json at all",
		`{"title": broken`,
		`{"description":"only description"}`,
		`{"title":"only title"}`,
		`{"title":"   ","description":"d"}`,
	}
	for _, response := range cases {
		llm := &mockLLM{response: response}
		s := newContentService(t, llm)

		out := s.Generate(context.Background(), sampleMeta(), "")
		require.NotEmpty(t, out.Title, "response=%q", response)
		require.NotEmpty(t, out.Description, "response=%q", response)
		require.LessOrEqual(t, len([]rune(out.Title)), domain.MaxTitleLen)
		require.LessOrEqual(t, len([]rune(out.Description)), domain.MaxDescriptionLen)
		require.LessOrEqual(t, len(out.Tags), domain.MaxTags)
	}
}

func TestFallback_EmojiPriorityOrder(t *testing.T) {
	cases := []struct {
		topic string
		emoji string
	}{
		{"Go講義 第3回", "📚"},
		{"入門course", "📚"},
		{"春のセミナー", "🎓"},
		{"workshopのご案内", "🎓"},
		{"定例ミーティング", "💼"},
		{"weekly meeting", "💼"},
		{"雑談回", "🎥"},
		// course/lecture outranks seminar and meeting when both match.
		{"講義とセミナーの会議", "📚"},
		{"セミナー後のミーティング", "🎓"},
	}
	for _, tc := range cases {
		out := fallbackContent(&domain.RecordingMetadata{Topic: tc.topic, DurationMinutes: 45}, "")
		require.True(t, strings.HasPrefix(out.Title, tc.emoji), "topic=%q title=%q", tc.topic, out.Title)
	}
}

func TestFallback_LongRecordingGetsExtraSentence(t *testing.T) {
	short := fallbackContent(&domain.RecordingMetadata{Topic: "講義", DurationMinutes: 60}, "")
	long := fallbackContent(&domain.RecordingMetadata{Topic: "講義", DurationMinutes: 61}, "")
	require.Greater(t, len(long.Description), len(short.Description))
	require.Contains(t, long.Description, "長編")
	require.NotContains(t, short.Description, "長編")
}

func TestFallback_BaseTags(t *testing.T) {
	out := fallbackContent(&domain.RecordingMetadata{Topic: "雑談回", DurationMinutes: 45}, "")
	require.Equal(t, []string{"lecture", "recording"}, out.Tags)

	out = fallbackContent(&domain.RecordingMetadata{Topic: "Go講義", DurationMinutes: 45}, "")
	require.Equal(t, []string{"lecture", "recording", "講義"}, out.Tags)
}

func TestFallback_UsesTopicHintWhenTopicEmpty(t *testing.T) {
	out := fallbackContent(&domain.RecordingMetadata{DurationMinutes: 45}, "補講セミナー")
	require.Contains(t, out.Title, "補講セミナー")
	require.True(t, strings.HasPrefix(out.Title, "🎓"))
}
