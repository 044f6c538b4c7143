// Package listing defines the fixed output schema for extracted real-estate
// listings and assembles output rows in column order.
package listing

import (
	"time"
)

const (
	// NotSpecified is written by the oracle for numeric and date fields that
	// the post does not mention.
	NotSpecified = "미기재"

	DateLayout = "2006-01-02"

	SourceLabelColumn = "업체명"
	URLColumn         = "URL"
	CollectedColumn   = "수집일자"

	// URLColumnIndex is the position of the post URL in every output row.
	URLColumnIndex = 1

	ColumnCount = 15
)

type Field struct {
	Key    string
	Format string
}

var fields = []Field{
	{Key: "단지명"},
	{Key: "소재지", Format: "반드시 '강남구 청담동 123-45'처럼 구/동/지번 형식 (지번 없으면 생략)"},
	{Key: "중개대상물종류"},
	{Key: "거래형태", Format: "'전세 보증금 10억', '월세 보증금 5억, 월세 400', '매매 45억' 등 한 줄에 통합"},
	{Key: "해당층/총층", Format: "아파트/오피스텔만 '3/20', '저층/고층' 등으로, 단독주택은 '" + NotSpecified + "'"},
	{Key: "공급/전용면적", Format: "'172.66㎡/151.63㎡ (52.22평/45.86평)' 형식, 없으면 '" + NotSpecified + "'"},
	{Key: "룸/욕실", Format: "'5/2' (숫자/숫자)"},
	{Key: "주차대수", Format: "숫자 또는 '" + NotSpecified + "'"},
	{Key: "향", Format: "남향, 남동향 등"},
	{Key: "입주가능일", Format: "yyyy-mm-dd 형식"},
	{Key: "사용승인일", Format: "yyyy-mm-dd 형식"},
	{Key: "관리비", Format: "숫자 또는 '" + NotSpecified + "'"},
}

// Fields returns the extracted fields in column order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// Header returns the column names of the output table.
func Header() []string {
	header := make([]string, 0, ColumnCount)
	header = append(header, SourceLabelColumn, URLColumn)
	header = append(header, Keys()...)
	return append(header, CollectedColumn)
}

// Extracted maps schema keys to the values returned by the oracle. It may
// hold keys outside the schema; those never reach a row.
type Extracted map[string]string

// Count returns how many schema fields carry a non-empty value.
func (e Extracted) Count() int {
	n := 0
	for _, f := range fields {
		if e[f.Key] != "" {
			n++
		}
	}
	return n
}

// Record is one row of the output table.
type Record struct {
	SourceLabel string
	PostURL     string
	Fields      Extracted
	CollectedAt time.Time
}

// Row returns exactly ColumnCount cells. Fields missing from the extraction
// become empty strings so columns stay aligned.
func (r Record) Row() []string {
	row := make([]string, 0, ColumnCount)
	row = append(row, r.SourceLabel, r.PostURL)
	for _, f := range fields {
		row = append(row, r.Fields[f.Key])
	}
	return append(row, r.CollectedAt.Format(DateLayout))
}
