package extract

import (
	"strings"

	"github.com/lysyi3m/listing-comb/app/listing"
)

// BuildPrompt returns the instruction sent to the oracle. The output depends
// only on the schema and the given text.
func BuildPrompt(normalizedText string) string {
	var b strings.Builder

	b.WriteString("다음 글에서 아래 항목을 분석해줘. 아래와 같은 통일된 형식으로 JSON으로 출력해줘:\n\n")

	for _, field := range listing.Fields() {
		b.WriteString("- ")
		b.WriteString(field.Key)
		if field.Format != "" {
			b.WriteString(": ")
			b.WriteString(field.Format)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n반드시 하나의 JSON 객체로만 답하고, 설명이나 다른 문장은 붙이지 마.\n")
	b.WriteString("키는 위 항목 이름 그대로(")
	b.WriteString(strings.Join(listing.Keys(), ", "))
	b.WriteString("), 순서도 지켜줘. 값은 모두 문자열로 써줘. 다음은 본문이야:\n")
	b.WriteString(normalizedText)
	b.WriteString("\n")

	return b.String()
}
