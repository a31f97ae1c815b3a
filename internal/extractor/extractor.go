// Package extractor は動画のタイトル・説明文からゲームイベント候補を抽出する。
// キーワードゲートと3形式の日付スキャンによるヒューリスティック抽出で、
// 抽出は決してエラーを返さない（不正な入力は空の結果になる）。
package extractor

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mizuki/gamecal/internal/model"
	"github.com/mizuki/gamecal/internal/youtube"
)

// eventKeywords はイベント告知の検出に使うキーワード集合。
// 韓国語と英語のペアで、大文字小文字を区別しない部分一致で判定する。
var eventKeywords = []string{
	"이벤트",
	"event",
	"업데이트",
	"update",
	"점검",
	"maintenance",
	"패치",
	"patch",
	"시작",
	"start",
	"종료",
	"end",
	"보상",
	"reward",
	"업그레이드",
	"upgrade",
	"시즌",
	"season",
}

// 日付抽出パターン。
var (
	// isoDatePattern は YYYY-MM-DD 形式。
	isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	// dotDatePattern は YYYY.MM.DD 形式。ISO形式に正規化して使う。
	dotDatePattern = regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`)
	// korDatePattern は韓国語の N월 N일 形式。年は抽出時点の年を補う。
	korDatePattern = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일`)
	// isoDateShape は検証用の厳密な形状チェック。
	isoDateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// EventExtractorService はイベント候補の抽出インターフェース。
type EventExtractorService interface {
	// Extract は動画からイベント候補を抽出する。候補が無い場合は空スライスを返す。
	// 抽出は決して失敗しない。
	Extract(video model.VideoSummary, gameName string) []model.EventCandidate
}

// Extractor はキーワードと日付パターンに基づくイベント抽出を行う。
type Extractor struct {
	logger *slog.Logger

	// now は現在時刻の取得関数。テストで差し替え可能にするためフィールドに持つ。
	now func() time.Time
}

var _ EventExtractorService = (*Extractor)(nil)

// NewExtractor はExtractorの新しいインスタンスを生成する。
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		now:    time.Now,
	}
}

// Extract は動画のタイトルと説明文からイベント候補を抽出する。
//
// キーワードが1つも含まれない場合は候補なし。キーワードがあり有効な日付が
// 1つも無い場合は動画の公開日を開始日とする候補を1件生成する。日付がある
// 場合は昇順に並べ、隣接する日付を開始日・終了日のペアとして候補を生成する
// （最後の候補のみ終了日なし）。
func (e *Extractor) Extract(video model.VideoSummary, gameName string) []model.EventCandidate {
	fullText := video.Title + " " + video.Description

	if !containsEventKeyword(fullText) {
		return []model.EventCandidate{}
	}

	sourceURL := youtube.WatchURL(video.VideoID)
	dates := e.extractDates(fullText)

	if len(dates) == 0 {
		// キーワード一致のみでも公開日ベースの候補を1件生成
		return []model.EventCandidate{
			{
				Title:       video.Title,
				Description: video.Description,
				StartDate:   video.PublishedAt.UTC().Format("2006-01-02"),
				SourceURL:   sourceURL,
				VideoID:     video.VideoID,
			},
		}
	}

	candidates := make([]model.EventCandidate, 0, len(dates))
	for i, date := range dates {
		c := model.EventCandidate{
			Title:       video.Title,
			Description: video.Description,
			StartDate:   date,
			SourceURL:   sourceURL,
			VideoID:     video.VideoID,
		}
		// 隣接する次の日付を終了日として使う
		if i+1 < len(dates) {
			c.EndDate = dates[i+1]
		}
		candidates = append(candidates, c)
	}

	e.logger.Debug("イベント候補を抽出しました",
		slog.String("video_id", video.VideoID),
		slog.String("game_name", gameName),
		slog.Int("candidates_count", len(candidates)),
	)

	return candidates
}

// containsEventKeyword はテキストにイベントキーワードが含まれるか判定する。
func containsEventKeyword(text string) bool {
	lowerText := strings.ToLower(text)
	for _, keyword := range eventKeywords {
		if strings.Contains(lowerText, keyword) {
			return true
		}
	}
	return false
}

// extractDates はテキストから日付らしき文字列を抽出し、
// 重複除去・検証・昇順ソートを行ってISO形式で返す。
func (e *Extractor) extractDates(text string) []string {
	var dates []string

	dates = append(dates, isoDatePattern.FindAllString(text, -1)...)

	for _, d := range dotDatePattern.FindAllString(text, -1) {
		dates = append(dates, strings.ReplaceAll(d, ".", "-"))
	}

	now := e.now()
	currentYear := strconv.Itoa(now.Year())
	for _, m := range korDatePattern.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		dates = append(dates, currentYear+"-"+pad2(month)+"-"+pad2(day))
	}

	seen := make(map[string]bool)
	valid := make([]string, 0, len(dates))
	for _, date := range dates {
		if seen[date] {
			continue
		}
		seen[date] = true
		if e.isValidDate(date, now) {
			valid = append(valid, date)
		}
	}

	// ISO形式の辞書順ソートは時系列順と一致する
	sort.Strings(valid)
	return valid
}

// isValidDate は抽出した日付文字列を検証する。
// YYYY-MM-DD形状の実在する暦日で、かつ現在から前後1年以内であること。
// 2026-09-31 のような存在しない日付はここで弾く。
func (e *Extractor) isValidDate(dateString string, now time.Time) bool {
	if !isoDateShape.MatchString(dateString) {
		return false
	}

	date, err := time.Parse("2006-01-02", dateString)
	if err != nil {
		return false
	}

	oneYearAgo := now.AddDate(-1, 0, 0)
	oneYearFromNow := now.AddDate(1, 0, 0)
	return !date.Before(oneYearAgo) && !date.After(oneYearFromNow)
}

// pad2 は数値を2桁のゼロ埋め文字列にする。
func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
