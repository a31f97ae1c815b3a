// Package model はドメインモデルを定義する。
package model

import "fmt"

// FetchFailure は両方のフェッチ経路（RSSとHTMLフォールバック）が
// 尽きた場合のエラー。どのチャンネルで失敗したかを保持する。
type FetchFailure struct {
	ChannelID string
	Err       error
}

// Error はerrorインターフェースを実装する。
func (e *FetchFailure) Error() string {
	return fmt.Sprintf("チャンネル %s の動画取得に失敗しました: %v", e.ChannelID, e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// ResolutionFailure はチャンネルURLからチャンネルIDを解決できなかった
// 場合のエラー。チャンネル登録・更新のみで発生し、パイプラインは遭遇しない。
type ResolutionFailure struct {
	ChannelURL string
}

// Error はerrorインターフェースを実装する。
func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("URLからYouTubeチャンネルを特定できませんでした: %s", e.ChannelURL)
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, channel, event, sync, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeChannelNotFound  = "CHANNEL_NOT_FOUND"
	ErrCodeDuplicateGame    = "DUPLICATE_GAME"
	ErrCodeResolutionFailed = "RESOLUTION_FAILED"
	ErrCodeEventNotFound    = "EVENT_NOT_FOUND"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeSyncFailed       = "SYNC_FAILED"
	ErrCodeSSRFBlocked      = "SSRF_BLOCKED"
)

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewChannelNotFoundError はチャンネル未検出エラーを生成する。
func NewChannelNotFoundError(channelID string) *APIError {
	return &APIError{
		Code:     ErrCodeChannelNotFound,
		Message:  fmt.Sprintf("指定されたチャンネルが見つかりません: %s", channelID),
		Category: "channel",
		Action:   "チャンネルIDを確認してください。",
	}
}

// NewDuplicateGameError は同名ゲームのチャンネルが既に存在する場合のエラーを生成する。
func NewDuplicateGameError(gameName string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateGame,
		Message:  fmt.Sprintf("このゲームのチャンネルは既に登録されています: %s", gameName),
		Category: "channel",
		Action:   "チャンネル一覧から該当チャンネルを確認してください。",
	}
}

// NewResolutionFailedError はチャンネルID解決失敗エラーを生成する。
func NewResolutionFailedError(channelURL string) *APIError {
	return &APIError{
		Code:     ErrCodeResolutionFailed,
		Message:  fmt.Sprintf("URLからYouTubeチャンネルを特定できませんでした: %s", channelURL),
		Category: "channel",
		Action:   "チャンネルページのURL（/channel/、/@ハンドル など）を確認してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベントIDを確認してください。",
	}
}

// NewInvalidDateError は無効な日付エラーを生成する。
func NewInvalidDateError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", reason),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で指定してください。",
	}
}

// NewSyncFailedError は手動同期失敗エラーを生成する。
func NewSyncFailedError(gameName string, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSyncFailed,
		Message:  fmt.Sprintf("チャンネル %s の同期に失敗しました: %s", gameName, reason),
		Category: "sync",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
