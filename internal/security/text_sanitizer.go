// Package security はユーザー入力の無害化を提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はタスクのタイトル・説明などの自由入力テキストから
// HTMLタグを除去する。保存前に適用し、格納型XSSを防ぐ。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないサニタイザーを作成する
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを取り除き、前後の空白を削る
func (s *TextSanitizer) Sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}
