package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/garyellow/program-catalog-go/internal/bilingual"
	"github.com/garyellow/program-catalog-go/internal/catalog"
	"github.com/garyellow/program-catalog-go/internal/facet"
	"github.com/garyellow/program-catalog-go/internal/pagination"
	"github.com/garyellow/program-catalog-go/internal/program"
	"github.com/garyellow/program-catalog-go/internal/richtext"
	"github.com/garyellow/program-catalog-go/internal/source"
)

var localDataNotice = map[bilingual.Language]string{
	bilingual.English: "Showing locally stored programs. Live data is currently unavailable.",
	bilingual.Chinese: "目前顯示本機儲存的課程資料，即時資料暫時無法取得。",
}

// TagView is a tag resolved to one language.
type TagView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary is one program card in a listing.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	Country    string    `json:"country"`
	Duration   string    `json:"duration"`
	GradeLevel string    `json:"grade_level"`
	Tags       []TagView `json:"tags"`
	Excerpt    string    `json:"excerpt"`
}

// Showing is the 1-based "Showing From–To of Total" range.
type Showing struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// ListResponse is the body of a successful listing.
type ListResponse struct {
	Success        bool                 `json:"success"`
	SessionID      string               `json:"session_id"`
	State          catalog.State        `json:"state"`
	Lang           bilingual.Language   `json:"lang"`
	Filter         facet.FilterState    `json:"filter"`
	Page           pagination.PageState `json:"page"`
	Showing        Showing              `json:"showing"`
	RequestedPage  int                  `json:"requested_page"`
	Navigated      bool                 `json:"navigated"` // false when a resumed session ignored an out-of-range page
	Origin         source.Origin        `json:"origin"`
	UsingLocalData bool                 `json:"using_local_data"`
	Notice         string               `json:"notice,omitempty"`
	Items          []Summary            `json:"items"`
}

func listResponse(view catalog.View, lang bilingual.Language) ListResponse {
	from, to := view.Page.Range()
	items := make([]Summary, 0, len(view.Items))
	for i := range view.Items {
		items = append(items, summarize(&view.Items[i], lang))
	}

	resp := ListResponse{
		Success:        true,
		SessionID:      view.SessionID,
		State:          view.State,
		Lang:           lang,
		Filter:         view.Filter,
		Page:           view.Page,
		Showing:        Showing{From: from, To: to, Total: view.Page.TotalItems},
		RequestedPage:  view.Page.CurrentPage,
		Navigated:      true,
		Origin:         view.Origin,
		UsingLocalData: view.UsingLocalData(),
		Items:          items,
	}
	if resp.UsingLocalData {
		resp.Notice = localDataNotice[lang]
	}
	return resp
}

func summarize(p *program.Program, lang bilingual.Language) Summary {
	return Summary{
		ID:         p.ID,
		Title:      bilingual.Resolve(p, lang, "title"),
		Location:   bilingual.Resolve(p, lang, "location"),
		Country:    p.Country,
		Duration:   p.Duration,
		GradeLevel: bilingual.Resolve(p, lang, "grade_level"),
		Tags:       tagViews(p.Tags, lang),
		Excerpt:    richtext.Excerpt(bilingual.Resolve(p, lang, "description"), ExcerptRunes),
	}
}

func tagViews(tags []program.Tag, lang bilingual.Language) []TagView {
	views := make([]TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, TagView{ID: t.ID, Name: bilingual.TagName(t, lang)})
	}
	return views
}

func detailResponse(p *program.Program, origin source.Origin, lang bilingual.Language) gin.H {
	rich := make(map[string]string, len(program.RichTextFields))
	for _, base := range program.RichTextFields {
		rich[base] = richtext.Sanitize(bilingual.Resolve(p, lang, base))
	}

	body := gin.H{
		"success":          true,
		"id":               p.ID,
		"program_id":       p.ProgramID,
		"lang":             lang,
		"title":            bilingual.Resolve(p, lang, "title"),
		"location":         bilingual.Resolve(p, lang, "location"),
		"country":          p.Country,
		"duration":         p.Duration,
		"grade_level":      bilingual.Resolve(p, lang, "grade_level"),
		"tags":             tagViews(p.Tags, lang),
		"content":          rich,
		"origin":           origin,
		"using_local_data": origin == source.OriginLocal,
	}
	if origin == source.OriginLocal {
		body["notice"] = localDataNotice[lang]
	}
	return body
}
