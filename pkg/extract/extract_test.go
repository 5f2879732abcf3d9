package extract

import (
	"strings"
	"testing"

	"exptv-finder/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *PatternExtractor {
	return New("exptv.org", "exptv.org/content2/")
}

func TestSchedule(t *testing.T) {
	text := `
<script>
var mon_14_b1 = {title: "Late Lunch", file: "show42.mp4", len: 1800};
var Mon_14_B2 = { "file" : 'show43.mp4' };
tue_03_b2={file:"night.mp4"}
wed_10_b1 = { title: "no file here" };
thu_33_b1 = { file: "bad-hour.mp4" };
fri_07_b3 = { file: "bad-block.mp4" };
</script>`

	table := newTestExtractor().Schedule(text)

	tests := []struct {
		key  schedule.Key
		file string
	}{
		{schedule.Key{Weekday: "mon", Hour: 14, Block: schedule.FirstHalf}, "show42.mp4"},
		{schedule.Key{Weekday: "mon", Hour: 14, Block: schedule.SecondHalf}, "show43.mp4"},
		{schedule.Key{Weekday: "tue", Hour: 3, Block: schedule.SecondHalf}, "night.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			e, ok := table[tt.key]
			require.True(t, ok, "missing %s", tt.key)
			assert.Equal(t, tt.file, e.File)
		})
	}

	assert.Len(t, table, 3, "file-less and malformed declarations are skipped")
}

func TestSchedule_LastDeclarationWins(t *testing.T) {
	text := `sat_20_b1 = {file: "first.mp4"}; sat_20_b1 = {file: "second.mp4"};`

	table := newTestExtractor().Schedule(text)
	assert.Equal(t, "second.mp4", table[schedule.Key{Weekday: "sat", Hour: 20, Block: schedule.FirstHalf}].File)
}

func TestSchedule_NoMatches(t *testing.T) {
	assert.Empty(t, newTestExtractor().Schedule(""))
	assert.Empty(t, newTestExtractor().Schedule("<html><body>nothing scheduled</body></html>"))
}

func TestAssets(t *testing.T) {
	text := `
<video src="https://exptv.org/content2/VIDEOBREAKS3.mp4#t=120"></video>
<a href="https://exptv.org/content2/VIDEOBREAKS3.mp4">same</a>
<a href='HTTPS://EXPTV.ORG/content2/shows/ep9.mp4'>upper</a>
"https:\/\/exptv.org\/content2\/escaped.mp4"
https://exptv.org/other/notcontent.mp4
https://cdn.example.com/content2/foreign.mp4
https://exptv.org/content2/poster.jpg`

	got := newTestExtractor().Assets(text)
	assert.Equal(t, []string{
		"HTTPS://EXPTV.ORG/content2/shows/ep9.mp4",
		"https://exptv.org/content2/VIDEOBREAKS3.mp4",
		"https://exptv.org/content2/escaped.mp4",
	}, got)
}

func TestAssets_FragmentDeduplication(t *testing.T) {
	text := `https://exptv.org/content2/a.mp4#anything https://exptv.org/content2/a.mp4 https://exptv.org/content2/a.mp4#t=9`

	got := newTestExtractor().Assets(text)
	assert.Equal(t, []string{"https://exptv.org/content2/a.mp4"}, got)
}

func TestEndpoints(t *testing.T) {
	text := `
fetch("https://exptv.org/api/schedule.json");
load('https://exptv.org/now-playing');
var x = "https://www.exptv.org/guide?day=mon";
var js = "https://exptv.org/static/app.js";
var css = "https://exptv.org/static/site.CSS";
var img = "https://exptv.org/logo.png";
var video = "https://exptv.org/content2/VIDEOBREAKS4.mp4";
var other = "https://example.com/api";
var spoof = "https://exptv.org.evil.com/api";
`
	got := newTestExtractor().Endpoints(text)
	assert.Equal(t, []string{
		"https://exptv.org/api/schedule.json",
		"https://exptv.org/now-playing",
		"https://www.exptv.org/guide?day=mon",
	}, got)
}

func TestStylesheet(t *testing.T) {
	css := `
@import "theme.css";
@import url('https://exptv.org/css/fonts.css');
@import url(print.css) print;
body { background: url("../img/bg.png"); }
.hero { background-image: url(/content2/loop.mp4#t=0); }
/* https://exptv.org/content2/VIDEOBREAKS5.mp4 */
`
	sheets, assets := newTestExtractor().Stylesheet(css, "https://exptv.org/css/main.css")

	assert.Equal(t, []string{
		"https://exptv.org/css/fonts.css",
		"https://exptv.org/css/print.css",
		"https://exptv.org/css/theme.css",
	}, sheets)
	assert.Equal(t, []string{
		"https://exptv.org/content2/VIDEOBREAKS5.mp4",
		"https://exptv.org/content2/loop.mp4",
	}, assets)
}

func TestStylesheet_Empty(t *testing.T) {
	sheets, assets := newTestExtractor().Stylesheet("", "https://exptv.org/a.css")
	assert.Empty(t, sheets)
	assert.Empty(t, assets)
}

func TestDocument(t *testing.T) {
	html := `<!doctype html>
<html><head>
<script src="/js/app.js"></script>
<script src="  "></script>
<script>var inline = 1;</script>
<script src="https://cdn.example.com/lib.js"></script>
<link rel="stylesheet" href="css/site.css">
<link rel="Alternate Stylesheet" href="/css/alt.css">
<link rel="icon" href="/favicon.ico">
<link rel="stylesheet" href="">
</head><body></body></html>`

	scripts, sheets := newTestExtractor().Document(html, "https://exptv.org/index.html")

	assert.Equal(t, []string{
		"https://exptv.org/js/app.js",
		"https://cdn.example.com/lib.js",
	}, scripts)
	assert.Equal(t, []string{
		"https://exptv.org/css/site.css",
		"https://exptv.org/css/alt.css",
	}, sheets)
}

func TestPlaylistAssets(t *testing.T) {
	media := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-TARGETDURATION:1800",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXTINF:1800.000,",
		"VIDEOBREAKS11.mp4",
		"#EXTINF:1800.000,",
		"https://exptv.org/content2/VIDEOBREAKS12.mp4",
		"#EXTINF:10.000,",
		"segment0.ts",
		"",
	}, "\n")

	got := newTestExtractor().PlaylistAssets(media, "https://exptv.org/content2/live.m3u8")
	assert.Equal(t, []string{
		"https://exptv.org/content2/VIDEOBREAKS11.mp4",
		"https://exptv.org/content2/VIDEOBREAKS12.mp4",
	}, got)

	assert.Nil(t, newTestExtractor().PlaylistAssets("<html></html>", "https://exptv.org/"))
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "https://exptv.org/content2/a.mp4", StripFragment("https://exptv.org/content2/a.mp4#t=5"))
	assert.Equal(t, "https://exptv.org/content2/a.mp4", StripFragment("https://exptv.org/content2/a.mp4"))
}
