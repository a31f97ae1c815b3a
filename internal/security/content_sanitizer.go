// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はフィードやHTMLページから取得した
// タイトル・説明文をプレーンテキストに正規化する。
// bluemondayのStrictPolicyで全てのタグを除去し、
// スクレイピング結果に紛れ込んだマークアップの保存を防ぐ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// 動画タイトル・説明文の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLタグを全て除去し、
	// エンティティをデコードした上で前後の空白をトリムして返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、全てのマークアップが除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力をプレーンテキストに正規化して返す。
// bluemondayはタグ除去後にエンティティをエスケープするため、
// 表示用テキストとして扱えるようにUnescapeStringを適用する。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
