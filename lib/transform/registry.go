package transform

import (
	"fmt"
	"strings"
)

// htmlKey carries the raw subject markup through the pipeline so the
// repair rules can re-extract fields the structured parse missed. It
// never appears in the output.
const htmlKey = "html"

const joinSeparator = " / "

var bookFields = []FieldDescriptor{
	{SourceName: "subjectId", DisplayName: "条目ID", Type: FieldTypeText, Required: true},
	{SourceName: "title", DisplayName: "书名", Type: FieldTypeText, Required: true},
	{SourceName: "subtitle", DisplayName: "副标题", Type: FieldTypeText},
	{SourceName: "origTitle", DisplayName: "原作名", Type: FieldTypeText},
	{SourceName: "author", DisplayName: "作者", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
	{SourceName: "translator", DisplayName: "译者", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
	{SourceName: "publisher", DisplayName: "出版社", Type: FieldTypeText},
	{SourceName: "producer", DisplayName: "出品方", Type: FieldTypeText},
	{SourceName: "publishDate", DisplayName: "出版年", Type: FieldTypeText},
	{SourceName: "pages", DisplayName: "页数", Type: FieldTypeNumber},
	{SourceName: "price", DisplayName: "定价", Type: FieldTypeText},
	{SourceName: "binding", DisplayName: "装帧", Type: FieldTypeText},
	{SourceName: "series", DisplayName: "丛书", Type: FieldTypeText},
	{SourceName: "isbn", DisplayName: "ISBN", Type: FieldTypeText},
	{SourceName: "doubanRating", DisplayName: "豆瓣评分", Type: FieldTypeNumber, NestedPath: "rating.average"},
	{SourceName: "ratingCount", DisplayName: "评分人数", Type: FieldTypeNumber, NestedPath: "rating.numRaters"},
	{SourceName: "url", DisplayName: "条目链接", Type: FieldTypeURL},
	{SourceName: "coverUrl", DisplayName: "封面", Type: FieldTypeURL},
	{SourceName: "status", DisplayName: "状态", Type: FieldTypeSingleSelect, Required: true},
	{SourceName: "myRating", DisplayName: "我的评分", Type: FieldTypeRating},
	{SourceName: "comment", DisplayName: "我的短评", Type: FieldTypeText},
	{SourceName: "tags", DisplayName: "标签", Type: FieldTypeMultiSelect, Notes: "joined with " + joinSeparator},
	{SourceName: "markDate", DisplayName: "标记日期", Type: FieldTypeDatetime},
}

// mediaFields builds the movie table; the tv variant adds episode
// info right after the release date.
func mediaFields(episodes bool) []FieldDescriptor {
	fields := []FieldDescriptor{
		{SourceName: "subjectId", DisplayName: "条目ID", Type: FieldTypeText, Required: true},
		{SourceName: "title", DisplayName: "片名", Type: FieldTypeText, Required: true},
		{SourceName: "origTitle", DisplayName: "原名", Type: FieldTypeText},
		{SourceName: "aka", DisplayName: "又名", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
		{SourceName: "director", DisplayName: "导演", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
		{SourceName: "screenwriter", DisplayName: "编剧", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
		{SourceName: "cast", DisplayName: "主演", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
		{SourceName: "genres", DisplayName: "类型", Type: FieldTypeText, Notes: "joined with " + joinSeparator},
		{SourceName: "country", DisplayName: "制片国家/地区", Type: FieldTypeText},
		{SourceName: "language", DisplayName: "语言", Type: FieldTypeText},
		{SourceName: "releaseDate", DisplayName: "上映日期", Type: FieldTypeText},
		{SourceName: "duration", DisplayName: "片长", Type: FieldTypeText},
		{SourceName: "imdb", DisplayName: "IMDb", Type: FieldTypeText},
		{SourceName: "doubanRating", DisplayName: "豆瓣评分", Type: FieldTypeNumber, NestedPath: "rating.average"},
		{SourceName: "ratingCount", DisplayName: "评分人数", Type: FieldTypeNumber, NestedPath: "rating.numRaters"},
		{SourceName: "url", DisplayName: "条目链接", Type: FieldTypeURL},
		{SourceName: "coverUrl", DisplayName: "海报", Type: FieldTypeURL},
		{SourceName: "status", DisplayName: "状态", Type: FieldTypeSingleSelect, Required: true},
		{SourceName: "myRating", DisplayName: "我的评分", Type: FieldTypeRating},
		{SourceName: "comment", DisplayName: "我的短评", Type: FieldTypeText},
		{SourceName: "tags", DisplayName: "标签", Type: FieldTypeMultiSelect, Notes: "joined with " + joinSeparator},
		{SourceName: "markDate", DisplayName: "标记日期", Type: FieldTypeDatetime},
	}
	if !episodes {
		return fields
	}
	withEpisodes := make([]FieldDescriptor, 0, len(fields)+1)
	for _, field := range fields {
		withEpisodes = append(withEpisodes, field)
		if field.SourceName == "releaseDate" {
			withEpisodes = append(withEpisodes, FieldDescriptor{
				SourceName: "episodes", DisplayName: "集数", Type: FieldTypeNumber,
			})
		}
	}
	return withEpisodes
}

var registry = map[ContentType][]FieldDescriptor{
	ContentTypeBooks:       bookFields,
	ContentTypeMovies:      mediaFields(false),
	ContentTypeTV:          mediaFields(true),
	ContentTypeDocumentary: mediaFields(false),
}

// statusValues lists the accepted shelf states per content type.
var statusValues = map[ContentType][]string{
	ContentTypeBooks:       {"想读", "在读", "读过"},
	ContentTypeMovies:      {"想看", "看过"},
	ContentTypeTV:          {"想看", "看过"},
	ContentTypeDocumentary: {"想看", "看过"},
}

// Descriptors returns the read-only field table for a content type.
// Callers must not modify the returned slice.
func Descriptors(ct ContentType) ([]FieldDescriptor, error) {
	fields, ok := registry[ct]
	if !ok {
		return nil, fmt.Errorf("no field table for content type %q", ct)
	}
	return fields, nil
}

// ContentTypes lists every content type with a field table, in a
// stable order.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeBooks, ContentTypeMovies, ContentTypeTV, ContentTypeDocumentary}
}

// ParseContentType validates a user-supplied content type name.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[ct]; !ok {
		return "", fmt.Errorf("unknown content type %q (expected books, movies, tv or documentary)", s)
	}
	return ct, nil
}
