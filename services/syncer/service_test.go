package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/testutil"
	"doubansync-backend/lib/transform"
	"doubansync-backend/services/keychain"
	keychaindb "doubansync-backend/services/keychain/db"
	syncerdb "doubansync-backend/services/syncer/db"
)

var testPacing = core.PacingConfig{
	NormalBaseDelay:   time.Millisecond,
	NormalRandomRange: time.Millisecond,
	SlowBaseDelay:     time.Millisecond,
	SlowRandomRange:   time.Millisecond,
	RetryBackoffMin:   time.Millisecond,
	RetryBackoffMax:   2 * time.Millisecond,
	Timeout:           time.Second * 5,
}

// setup brings up the service on an in-memory database with a stored
// credential for "alice" and her session pre-seeded with a client
// whose transport is mocked.
func setup(t testing.TB) (Service, *core.Client) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/syncer",
		DbSchema: keychaindb.Schema + syncerdb.Schema,
	})
	t.Cleanup(cleanup)
	// the in-memory database exists per connection
	res.DB.SetMaxOpenConns(1)

	credentials := keychain.NewService(res.DB)
	service := NewService(res.DB, credentials, Options{Pacing: testPacing})

	err := credentials.SetCredential(context.Background(), "alice", core.Credential{Cookie: `bid=abc; dbcl2="123:xyz"`})
	require.NoError(t, err)

	client, err := core.NewClient(core.ClientOptions{Pacing: testPacing})
	require.NoError(t, err)
	httpmock.ActivateNonDefault(client.Http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	service.sessions.Add("alice", client)

	return service, client
}

const emptyShelfPage = `<html><body><ul class="interest-list"></ul></body></html>`

const bookShelfPageOne = `<html><body>
<ul class="interest-list">
<li class="subject-item">
  <div class="info">
    <h2><a href="https://book.douban.com/subject/1007305/" title="红楼梦">红楼梦</a></h2>
    <div class="short-note">
      <div>
        <span class="rating5-t"></span>
        <span class="date">2024-01-15 读过</span>
      </div>
      <span class="tags">标签: 古典 小说</span>
      <p class="comment">千红一窟，万艳同杯。</p>
    </div>
  </div>
</li>
</ul>
<div class="paginator">
  <span class="next"><a href="/people/alice/collect?start=15">后页&gt;</a></span>
</div>
</body></html>`

const bookShelfPageTwo = `<html><body>
<ul class="interest-list">
<li class="subject-item">
  <div class="info">
    <h2><a href="https://book.douban.com/subject/1082154/" title="活着">活着</a></h2>
    <div class="short-note">
      <div><span class="date">2023-11-02 读过</span></div>
    </div>
  </div>
</li>
</ul>
</body></html>`

const bookSubjectHongLouMeng = `<html><head>
<title>红楼梦 (豆瓣)</title>
<meta property="og:url" content="https://book.douban.com/subject/1007305/"/>
<meta property="og:image" content="https://img1.doubanio.com/view/subject/l/public/s1070959.jpg"/>
</head><body>
<h1><span property="v:itemreviewed">红楼梦</span></h1>
<div id="info">
  <span>
    <span class="pl"> 作者</span>:
    <a href="https://book.douban.com/author/4501738">[清] 曹雪芹</a>
    /
    <a href="https://book.douban.com/search/%E9%AB%98%E9%B9%97">高鹗</a>
  </span><br/>
  <span class="pl">出版社:</span> 人民文学出版社<br/>
  <span class="pl">出版年:</span> 1996-12<br/>
  <span class="pl">ISBN:</span> 9787020002207<br/>
</div>
<div id="interest_sectl">
  <strong class="ll rating_num " property="v:average">9.6</strong>
  <span property="v:votes">491993</span>
</div>
</body></html>`

const bookSubjectHuoZhe = `<html><head>
<meta property="og:url" content="https://book.douban.com/subject/1082154/"/>
</head><body>
<h1><span property="v:itemreviewed">活着</span></h1>
<div id="info">
  <span>
    <span class="pl"> 作者</span>:
    <a href="https://book.douban.com/author/4513357">余华</a>
  </span><br/>
  <span class="pl">出版年:</span> 2012-8-1<br/>
</div>
</body></html>`

func registerBookResponders() {
	httpmock.RegisterResponder("GET", "https://book.douban.com/people/alice/wish",
		httpmock.NewStringResponder(200, emptyShelfPage))
	httpmock.RegisterResponder("GET", "https://book.douban.com/people/alice/do",
		httpmock.NewStringResponder(200, emptyShelfPage))
	httpmock.RegisterResponder("GET", "https://book.douban.com/people/alice/collect",
		httpmock.NewStringResponder(200, bookShelfPageOne))
	httpmock.RegisterResponder("GET", "https://book.douban.com/people/alice/collect?start=15",
		httpmock.NewStringResponder(200, bookShelfPageTwo))
	httpmock.RegisterResponder("GET", "https://book.douban.com/subject/1007305/",
		httpmock.NewStringResponder(200, bookSubjectHongLouMeng))
	httpmock.RegisterResponder("GET", "https://book.douban.com/subject/1082154/",
		httpmock.NewStringResponder(200, bookSubjectHuoZhe))
}

func TestSyncUserBooks(t *testing.T) {
	service, client := setup(t)
	ctx := context.Background()
	registerBookResponders()

	report, err := service.SyncUser(ctx, "alice", []transform.ContentType{transform.ContentTypeBooks})
	require.NoError(t, err)
	require.Equal(t, 2, report.Synced[transform.ContentTypeBooks])
	require.Equal(t, 2, report.TotalSynced())
	require.Zero(t, report.Skipped)
	require.Zero(t, report.Failed)
	require.False(t, report.Interrupted)

	rec, err := service.GetRecord(ctx, "alice", transform.ContentTypeBooks, "1007305")
	require.NoError(t, err)
	require.Equal(t, "红楼梦", rec.Title)
	require.Equal(t, "读过", rec.Status)
	require.Equal(t, "[清] 曹雪芹 / 高鹗", rec.Data["author"])
	require.Equal(t, "1996-12", rec.Data["publishDate"])
	require.Equal(t, 9.6, rec.Data["doubanRating"])
	require.Equal(t, float64(5), rec.Data["myRating"])
	require.Equal(t, "古典 / 小说", rec.Data["tags"])
	require.Equal(t, "2024-01-15", rec.Data["markDate"])
	require.Equal(t, "千红一窟，万艳同杯。", rec.Data["comment"])
	require.NotZero(t, rec.Stats.TotalFields)
	require.LessOrEqual(t, rec.Stats.TransformedFields+rec.Stats.FailedFields, rec.Stats.TotalFields)
	require.False(t, rec.SyncedAt.IsZero())

	// 2012-8-1 needs the publish date repair
	rec, err = service.GetRecord(ctx, "alice", transform.ContentTypeBooks, "1082154")
	require.NoError(t, err)
	require.Equal(t, "2012-08", rec.Data["publishDate"])
	require.NotZero(t, rec.Stats.RepairedFields)

	// a second run re-walks everything through the cached session and
	// upserts in place
	fetched := client.Stats().RequestCount
	report, err = service.SyncUser(ctx, "alice", []transform.ContentType{transform.ContentTypeBooks})
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalSynced())
	require.Greater(t, client.Stats().RequestCount, fetched)

	records, err := service.ListRecords(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

const mediaShelfPage = `<html><body>
<div class="grid-view">
  <div class="item">
    <div class="info"><ul>
      <li class="title"><a href="https://movie.douban.com/subject/1292052/">肖申克的救赎 / The Shawshank Redemption</a></li>
      <li><span class="date">2024-02-02</span><span class="rating4-t"></span></li>
    </ul></div>
  </div>
  <div class="item">
    <div class="info"><ul>
      <li class="title"><a href="https://movie.douban.com/subject/26794435/">大明王朝1566</a></li>
      <li><span class="date">2024-03-08</span></li>
    </ul></div>
  </div>
  <div class="item">
    <div class="info"><ul>
      <li class="title"><a href="https://movie.douban.com/subject/26302614/">河西走廊</a></li>
      <li><span class="date">2024-04-20</span></li>
    </ul></div>
  </div>
</div>
</body></html>`

const movieSubjectShawshank = `<html><head>
<meta property="og:url" content="https://movie.douban.com/subject/1292052/"/>
</head><body>
<h1><span property="v:itemreviewed">肖申克的救赎 The Shawshank Redemption</span></h1>
<div id="info">
  <span class="pl">导演</span>: <span class="attrs"><a href="/celebrity/1047973/" rel="v:directedBy">弗兰克·德拉邦特</a></span><br/>
  <span class="pl">类型:</span> <span property="v:genre">剧情</span> / <span property="v:genre">犯罪</span><br/>
  <span class="pl">制片国家/地区:</span> 美国<br/>
  <span class="pl">语言:</span> 英语<br/>
  <span class="pl">片长:</span> <span property="v:runtime" content="142">142分钟</span><br/>
</div>
</body></html>`

const tvSubjectDaMing = `<html><head>
<meta property="og:url" content="https://movie.douban.com/subject/26794435/"/>
</head><body>
<h1><span property="v:itemreviewed">大明王朝1566</span></h1>
<div id="info">
  <span class="pl">类型:</span> <span property="v:genre">剧情</span> / <span property="v:genre">历史</span><br/>
  <span class="pl">集数:</span> 46<br/>
</div>
</body></html>`

const docSubjectHexi = `<html><head>
<meta property="og:url" content="https://movie.douban.com/subject/26302614/"/>
</head><body>
<h1><span property="v:itemreviewed">河西走廊</span></h1>
<div id="info">
  <span class="pl">类型:</span> <span property="v:genre">纪录片</span> / <span property="v:genre">历史</span><br/>
  <span class="pl">集数:</span> 10<br/>
</div>
</body></html>`

func registerMediaResponders() {
	httpmock.RegisterResponder("GET", "https://movie.douban.com/people/alice/wish",
		httpmock.NewStringResponder(200, emptyShelfPage))
	httpmock.RegisterResponder("GET", "https://movie.douban.com/people/alice/collect",
		httpmock.NewStringResponder(200, mediaShelfPage))
	httpmock.RegisterResponder("GET", "https://movie.douban.com/subject/1292052/",
		httpmock.NewStringResponder(200, movieSubjectShawshank))
	httpmock.RegisterResponder("GET", "https://movie.douban.com/subject/26794435/",
		httpmock.NewStringResponder(200, tvSubjectDaMing))
	httpmock.RegisterResponder("GET", "https://movie.douban.com/subject/26302614/",
		httpmock.NewStringResponder(200, docSubjectHexi))
}

func TestSyncUserSplitsMediaKinds(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()
	registerMediaResponders()

	report, err := service.SyncUser(ctx, "alice", []transform.ContentType{
		transform.ContentTypeMovies,
		transform.ContentTypeTV,
		transform.ContentTypeDocumentary,
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Synced[transform.ContentTypeMovies])
	require.Equal(t, 1, report.Synced[transform.ContentTypeTV])
	require.Equal(t, 1, report.Synced[transform.ContentTypeDocumentary])
	require.Zero(t, report.Skipped)

	movie, err := service.GetRecord(ctx, "alice", transform.ContentTypeMovies, "1292052")
	require.NoError(t, err)
	require.Equal(t, "看过", movie.Status)
	require.Equal(t, "剧情 / 犯罪", movie.Data["genres"])
	require.Equal(t, "142分钟", movie.Data["duration"])
	require.Equal(t, float64(4), movie.Data["myRating"])

	series, err := service.GetRecord(ctx, "alice", transform.ContentTypeTV, "26794435")
	require.NoError(t, err)
	require.Equal(t, float64(46), series.Data["episodes"])

	doc, err := service.GetRecord(ctx, "alice", transform.ContentTypeDocumentary, "26302614")
	require.NoError(t, err)
	require.Equal(t, "纪录片 / 历史", doc.Data["genres"])
}

func TestSyncUserSkipsUnwantedKinds(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()
	registerMediaResponders()

	report, err := service.SyncUser(ctx, "alice", []transform.ContentType{transform.ContentTypeMovies})
	require.NoError(t, err)
	require.Equal(t, 1, report.Synced[transform.ContentTypeMovies])
	require.Equal(t, 2, report.Skipped)

	_, err = service.GetRecord(ctx, "alice", transform.ContentTypeTV, "26794435")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSyncUserTerminalErrorInterrupts(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()

	httpmock.RegisterResponder("GET", "https://book.douban.com/people/alice/wish",
		httpmock.NewStringResponder(403, ""))

	report, err := service.SyncUser(ctx, "alice", []transform.ContentType{transform.ContentTypeBooks})
	require.Error(t, err)
	require.True(t, core.IsTerminal(err))
	require.True(t, report.Interrupted)
	require.NotEmpty(t, report.Reason)
	require.Zero(t, report.TotalSynced())
}

func TestSyncUserTransientSubjectFailure(t *testing.T) {
	service, _ := setup(t)
	ctx := context.Background()
	registerBookResponders()
	httpmock.RegisterResponder("GET", "https://book.douban.com/subject/1082154/",
		httpmock.NewErrorResponder(errors.New("connection reset by peer")))

	report, err := service.SyncUser(ctx, "alice", []transform.ContentType{transform.ContentTypeBooks})
	require.NoError(t, err)
	require.Equal(t, 1, report.Synced[transform.ContentTypeBooks])
	require.Equal(t, 1, report.Failed)
	require.False(t, report.Interrupted)
}

func TestSyncUserMissingCredential(t *testing.T) {
	service, _ := setup(t)

	_, err := service.SyncUser(context.Background(), "nobody", nil)
	require.ErrorIs(t, err, keychain.ErrNotFound)
}

func TestCheckCredential(t *testing.T) {
	service, _ := setup(t)

	httpmock.RegisterResponder("GET", "https://www.douban.com/people/alice/",
		httpmock.NewStringResponder(200, "<html>alice 的主页</html>"))

	status, err := service.CheckCredential(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, status.Valid)
}

func TestClassifyKind(t *testing.T) {
	mediaWalk := shelfWalk{parseAs: transform.ContentTypeTV}
	bookWalk := shelfWalk{parseAs: transform.ContentTypeBooks}

	require.Equal(t, transform.ContentTypeBooks,
		classifyKind(bookWalk, map[string]any{}))
	require.Equal(t, transform.ContentTypeMovies,
		classifyKind(mediaWalk, map[string]any{"genres": []string{"剧情"}}))
	require.Equal(t, transform.ContentTypeTV,
		classifyKind(mediaWalk, map[string]any{"episodes": 46}))
	// documentary series carry episode info too, the genre wins
	require.Equal(t, transform.ContentTypeDocumentary,
		classifyKind(mediaWalk, map[string]any{"episodes": 10, "genres": []string{"纪录片", "历史"}}))
}

func TestBuildWalks(t *testing.T) {
	walks := buildWalks([]transform.ContentType{transform.ContentTypeBooks})
	require.Len(t, walks, 1)
	require.Equal(t, "book.douban.com", walks[0].host)
	require.Len(t, walks[0].shelves, 3)

	walks = buildWalks([]transform.ContentType{transform.ContentTypeMovies, transform.ContentTypeTV})
	require.Len(t, walks, 1)
	require.Equal(t, "movie.douban.com", walks[0].host)
	require.Len(t, walks[0].shelves, 2)

	walks = buildWalks(transform.ContentTypes())
	require.Len(t, walks, 2)
}
