package parser

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"doubansync-backend/lib/transform"
)

const bookSubjectPage = `<!DOCTYPE html>
<html>
<head>
<title>红楼梦 (豆瓣)</title>
<meta property="og:url" content="https://book.douban.com/subject/1007305/"/>
<meta property="og:image" content="https://img1.doubanio.com/view/subject/l/public/s1070959.jpg"/>
</head>
<body>
<h1><span property="v:itemreviewed">红楼梦</span></h1>
<div id="info">
  <span>
    <span class="pl"> 作者</span>:
    <a class="" href="https://book.douban.com/author/4501738">[清] 曹雪芹</a>
    /
    <a class="" href="https://book.douban.com/search/%E9%AB%98%E9%B9%97">高鹗</a>
  </span><br/>
  <span class="pl">出版社:</span>
  <a href="https://book.douban.com/press/2609">人民文学出版社</a><br/>
  <span class="pl">出版年:</span> 1996-12<br/>
  <span class="pl">页数:</span> 1606<br/>
  <span class="pl">定价:</span> 59.70元<br/>
  <span class="pl">装帧:</span> 平装<br/>
  <span class="pl">丛书:</span>&nbsp;<a href="https://book.douban.com/series/1518">中国古典文学读本丛书</a><br/>
  <span class="pl">ISBN:</span> 9787020002207<br/>
</div>
<div id="interest_sectl">
  <strong class="ll rating_num " property="v:average">9.6</strong>
  <span property="v:votes">491993</span>
</div>
</body>
</html>`

func TestParseBookSubject(t *testing.T) {
	raw, err := ParseSubject(bookSubjectPage, transform.ContentTypeBooks)
	require.NoError(t, err)

	require.Equal(t, bookSubjectPage, raw["html"])
	delete(raw, "html")

	want := map[string]any{
		"subjectId":   "1007305",
		"title":       "红楼梦",
		"url":         "https://book.douban.com/subject/1007305/",
		"coverUrl":    "https://img1.doubanio.com/view/subject/l/public/s1070959.jpg",
		"author":      []string{"[清] 曹雪芹", "高鹗"},
		"publisher":   "人民文学出版社",
		"publishDate": "1996-12",
		"pages":       1606,
		"price":       "59.70元",
		"binding":     "平装",
		"series":      "中国古典文学读本丛书",
		"isbn":        "9787020002207",
		"rating": map[string]any{
			"average":   9.6,
			"numRaters": 491993,
		},
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Fatalf("parsed subject mismatch (-want +got):\n%s", diff)
	}
}

const movieSubjectPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:url" content="https://movie.douban.com/subject/1292052/"/>
<meta property="og:image" content="https://img2.doubanio.com/view/photo/s_ratio_poster/public/p480747492.jpg"/>
</head>
<body>
<h1><span property="v:itemreviewed">肖申克的救赎 The Shawshank Redemption</span><span class="year">(1994)</span></h1>
<div id="info">
  <span class="pl">导演</span>: <span class="attrs"><a href="/celebrity/1047973/" rel="v:directedBy">弗兰克·德拉邦特</a></span><br/>
  <span class="pl">编剧</span>: <span class="attrs"><a href="/celebrity/1047973/">弗兰克·德拉邦特</a> / <a href="/celebrity/1049547/">斯蒂芬·金</a></span><br/>
  <span class="pl">主演</span>: <span class="actors"><a href="/celebrity/1054521/" rel="v:starring">蒂姆·罗宾斯</a> / <a href="/celebrity/1054534/" rel="v:starring">摩根·弗里曼</a></span><br/>
  <span class="pl">类型:</span> <span property="v:genre">剧情</span> / <span property="v:genre">犯罪</span><br/>
  <span class="pl">制片国家/地区:</span> 美国<br/>
  <span class="pl">语言:</span> 英语<br/>
  <span class="pl">上映日期:</span> <span property="v:initialReleaseDate" content="1994-09-10(多伦多电影节)">1994-09-10(多伦多电影节)</span> / <span property="v:initialReleaseDate" content="1994-10-14(美国)">1994-10-14(美国)</span><br/>
  <span class="pl">片长:</span> <span property="v:runtime" content="142">142分钟</span><br/>
  <span class="pl">又名:</span> 月黑高飞(港) / 刺激1995(台)<br/>
  <span class="pl">IMDb:</span> tt0111161<br/>
</div>
<div id="interest_sectl">
  <strong class="ll rating_num" property="v:average">9.7</strong>
  <span property="v:votes">3087431</span>
</div>
</body>
</html>`

func TestParseMovieSubject(t *testing.T) {
	raw, err := ParseSubject(movieSubjectPage, transform.ContentTypeMovies)
	require.NoError(t, err)

	require.Equal(t, "肖申克的救赎 The Shawshank Redemption", raw["title"])
	require.Equal(t, "1292052", raw["subjectId"])
	require.Equal(t, []string{"弗兰克·德拉邦特"}, raw["director"])
	require.Equal(t, []string{"弗兰克·德拉邦特", "斯蒂芬·金"}, raw["screenwriter"])
	require.Equal(t, []string{"蒂姆·罗宾斯", "摩根·弗里曼"}, raw["cast"])
	require.Equal(t, []string{"剧情", "犯罪"}, raw["genres"])
	require.Equal(t, "美国", raw["country"])
	require.Equal(t, "英语", raw["language"])
	require.Equal(t, []string{"1994-09-10(多伦多电影节)", "1994-10-14(美国)"}, raw["releaseDate"])
	require.Equal(t, "142分钟", raw["duration"])
	require.Equal(t, []string{"月黑高飞(港)", "刺激1995(台)"}, raw["aka"])
	require.Equal(t, "tt0111161", raw["imdb"])
	require.Equal(t, map[string]any{"average": 9.7, "numRaters": 3087431}, raw["rating"])
	require.Nil(t, raw["episodes"])
}

func TestParseTVSubjectEpisodes(t *testing.T) {
	page := `<html><head>
<meta property="og:url" content="https://movie.douban.com/subject/26794435/"/>
</head><body>
<h1><span property="v:itemreviewed">大明王朝1566</span></h1>
<div id="info">
  <span class="pl">集数:</span> 46<br/>
  <span class="pl">单集片长:</span> 45分钟<br/>
</div>
</body></html>`

	raw, err := ParseSubject(page, transform.ContentTypeTV)
	require.NoError(t, err)
	require.Equal(t, 46, raw["episodes"])
}

func TestParseSubjectFeedsTransform(t *testing.T) {
	raw, err := ParseSubject(bookSubjectPage, transform.ContentTypeBooks)
	require.NoError(t, err)
	raw["status"] = "读过"

	res := transform.Transform(context.Background(), raw, transform.ContentTypeBooks, transform.Options{})

	require.Equal(t, "[清] 曹雪芹 / 高鹗", res.Data["author"])
	require.Equal(t, 9.6, res.Data["doubanRating"])
	require.Equal(t, "读过", res.Data["status"])
	require.Empty(t, res.Warnings)
}

func TestParseSubjectRejectsNonSubjectPages(t *testing.T) {
	_, err := ParseSubject(`<html><body><h1>Access Denied</h1></body></html>`, transform.ContentTypeBooks)
	require.Error(t, err)
}

func TestInfoTextMissingLabel(t *testing.T) {
	raw, err := ParseSubject(`<html><head>
<meta property="og:url" content="https://book.douban.com/subject/99/"/>
</head><body>
<h1><span property="v:itemreviewed">无名书</span></h1>
<div id="info"><span class="pl">出版社:</span> 某出版社<br/></div>
</body></html>`, transform.ContentTypeBooks)
	require.NoError(t, err)

	require.Equal(t, "某出版社", raw["publisher"])
	_, hasAuthor := raw["author"]
	require.False(t, hasAuthor)
	_, hasIsbn := raw["isbn"]
	require.False(t, hasIsbn)
}
