package web

import (
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/ops"
	"github.com/hpungsan/yougpt/internal/summary"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	p        *ops.Pipeline
	renderer *Renderer
}

// HandleIndex handles GET /: the summary form.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "index", h.indexData(
		r.URL.Query().Get("url"),
		r.URL.Query().Get("format"),
		r.URL.Query().Get("length"),
		"",
	))
}

// indexData builds the form state, keeping the user's selections.
func (h *Handlers) indexData(link, format, length, errMsg string) IndexPageData {
	f, err := summary.ParseFormat(format)
	if err != nil {
		f = summary.DefaultFormat
	}
	l, err := summary.ParseLength(length)
	if err != nil {
		l = summary.DefaultLength
	}

	formats := make([]Option, len(summary.Formats))
	for i, opt := range summary.Formats {
		formats[i] = Option{Value: opt.String(), Checked: opt == f}
	}
	lengths := make([]Option, len(summary.Lengths))
	for i, opt := range summary.Lengths {
		lengths[i] = Option{Value: opt.String(), Checked: opt == l}
	}

	return IndexPageData{
		PageData: h.renderer.page("YouGPT", "new"),
		URL:      link,
		Formats:  formats,
		Lengths:  lengths,
		Error:    errMsg,
	}
}

// HandleGenerate handles POST /summaries: run the pipeline for one link.
// Failures are shown inline above the form with the user's input kept.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.SummarizeInput{
		URL:    r.FormValue("url"),
		Format: r.FormValue("format"),
		Length: r.FormValue("length"),
	}

	result, err := ops.Summarize(r.Context(), h.p, input)
	if err != nil {
		appErr := errors.As(err)
		if wantsJSON(r) || appErr.Code == errors.ErrInternal {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderPageStatus(w, r, appErr.Status, "index",
			h.indexData(input.URL, input.Format, input.Length, appErr.Message))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, result)
		return
	}

	h.renderer.renderPage(w, r, "result", ResultPageData{
		PageData: h.renderer.page("Video Summary ("+result.Format+")", "new"),
		Summary:  result,
	})
}

// HandleHistory handles GET /summaries: stored summaries, newest first.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		VideoID:        q.Get("video_id"),
		Format:         q.Get("format"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.p.DB, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := HistoryPageData{
		PageData:   h.renderer.page("History", "history"),
		Items:      result.Items,
		Pagination: result.Pagination,
		VideoID:    input.VideoID,
		Format:     input.Format,
		Deleted:    input.IncludeDeleted,
	}
	pg := result.Pagination
	if pg.Offset > 0 {
		data.PrevURL = pageURL(q, max(pg.Offset-pg.Limit, 0))
	}
	if pg.HasMore {
		data.NextURL = pageURL(q, pg.Offset+pg.Limit)
	}

	h.renderer.renderPage(w, r, "history", data)
}

// HandleAbout handles GET /about: usage notes rendered from markdown.
func (h *Handlers) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "about", AboutPageData{
		PageData: h.renderer.page("About", "about"),
		Content:  h.renderer.renderMarkdown(string(aboutMarkdown)),
	})
}

// HandleDetail handles GET /summaries/{id}: view a stored summary.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	s, err := ops.Fetch(r.Context(), h.p.DB, ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, s)
		return
	}

	title := s.DisplayTitle()
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     h.renderer.page(title, "history"),
		Summary:      s,
		DisplayTitle: title,
	})
}

// HandleDownload handles GET /summaries/{id}/download/{kind}: the summary
// as a .txt or .pdf attachment.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Render(r.Context(), h.p.DB, ops.RenderInput{
		ID:   r.PathValue("id"),
		Kind: r.PathValue("kind"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

// HandleDelete handles DELETE /summaries/{id} (and the form fallback
// POST /summaries/{id}/delete): soft-delete a summary.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.p.DB, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/summaries", http.StatusSeeOther)
}

// HandlePurge handles POST /summaries/purge: permanently delete soft-deleted summaries.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := strings.TrimSpace(r.FormValue("older_than_days")); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.p.DB, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/summaries?include_deleted=true", http.StatusSeeOther)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// pageURL returns the history URL for offset, keeping the other filters.
func pageURL(q url.Values, offset int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("offset", strconv.Itoa(offset))
	return "/summaries?" + next.Encode()
}
