package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pkordes/detour/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

var pageFuncs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"price": func(amount float64, currency string) string {
		return printer.Sprintf("%.0f %s", amount, currency)
	},
	"regenerateURL": func(id string) string {
		return "/api/results/" + url.PathEscape(id) + "/regenerate"
	},
}

type pages struct {
	wait    *template.Template
	result  *template.Template
	failure *template.Template
}

func newPages() *pages {
	parse := func(name string) *template.Template {
		return template.Must(template.New(name).Funcs(pageFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return &pages{
		wait:    parse("waiting.html"),
		result:  parse("result.html"),
		failure: parse("error.html"),
	}
}

type waitPage struct {
	ResponseID string
}

type resultPage struct {
	Result  domain.RecommendationResult
	Expired bool
}

type errorPage struct {
	Code    int
	Message string
}

// WaitPage handles GET /wait. Without ?ref= it follows the most recent
// request still in flight.
func (s *Server) WaitPage(w http.ResponseWriter, r *http.Request) {
	var ref *string
	if err := queryParam(r, "ref", &ref); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid reference")
		return
	}

	responseID := ""
	if ref != nil {
		responseID = *ref
	}
	if responseID == "" {
		st, err := s.svc.LatestActiveStatus(r.Context())
		if err != nil {
			s.renderServiceError(w, r, err, "No request is being processed")
			return
		}
		responseID = st.ResponseID
	}

	s.render(w, r, s.pages.wait, http.StatusOK, waitPage{ResponseID: responseID})
}

// ResultPage handles GET /r/{result_id}.
func (s *Server) ResultPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "result_id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid result id")
		return
	}

	res, err := s.svc.GetResult(r.Context(), id)
	if err != nil {
		s.renderServiceError(w, r, err, "Result not found")
		return
	}

	s.render(w, r, s.pages.result, http.StatusOK, resultPage{Result: res, Expired: res.IsExpired(s.cfg.Now())})
}

func (s *Server) renderServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, notFound)
		return
	}
	slog.ErrorContext(r.Context(), "page failed", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong")
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	s.render(w, r, s.pages.failure, code, errorPage{Code: code, Message: msg})
}

// render buffers the page; a template error becomes a plain 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.ErrorContext(r.Context(), "render page", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
