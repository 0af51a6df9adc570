// Package web serves the interactive view: statement upload, month and
// category filters, the transaction table and the spending chart.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/category"
	"github.com/gastos-dev/gastos/internal/config"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/pipeline"
	"github.com/gastos-dev/gastos/internal/statement"
	"github.com/gastos-dev/gastos/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

const uploadField = "files"

// Options configures a Server.
type Options struct {
	Pipeline       *pipeline.Pipeline
	Labels         *category.Set
	Palette        category.Palette
	MaxUploadBytes int64
	MaxSessions    int
	Logger         zerolog.Logger
}

// Server hosts the interactive view.
type Server struct {
	pipeline  *pipeline.Pipeline
	labels    *category.Set
	palette   category.Palette
	maxUpload int64
	store     *Store
	tmpl      *template.Template
	log       zerolog.Logger
}

// NewServer parses the page templates and prepares an empty session store.
func NewServer(opts Options) (*Server, error) {
	if opts.Pipeline == nil || opts.Labels == nil {
		return nil, errors.New("web: pipeline and labels are required")
	}
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	maxSessions := opts.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 20
	}
	return &Server{
		pipeline:  opts.Pipeline,
		labels:    opts.Labels,
		palette:   opts.Palette,
		maxUpload: maxUpload,
		store:     NewStore(maxSessions),
		tmpl:      tmpl,
		log:       opts.Logger,
	}, nil
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /s/{id}", s.handleSession)
	mux.HandleFunc("GET /s/{id}/summary.json", s.handleSummary)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return Recovery(s.log)(RequestID(Logger(s.log)(mux)))
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type indexPage struct {
	Error       string
	Extensions  string
	MaxUploadMB int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", s.indexPage(""))
}

func (s *Server) indexPage(msg string) indexPage {
	reg := s.pipeline.Registry
	if reg == nil {
		reg = statement.DefaultRegistry()
	}
	return indexPage{
		Error:       msg,
		Extensions:  strings.Join(reg.Extensions(), ","),
		MaxUploadMB: s.maxUpload >> 20,
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.render(w, r, http.StatusBadRequest, "index.html", s.indexPage("Não foi possível ler o envio: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		s.render(w, r, http.StatusBadRequest, "index.html", s.indexPage("Selecione ao menos um arquivo de extrato."))
		return
	}

	var sources []statement.Source
	var names []string
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.render(w, r, http.StatusBadRequest, "index.html", s.indexPage("Não foi possível abrir "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.render(w, r, http.StatusBadRequest, "index.html", s.indexPage("Não foi possível ler "+fh.Filename))
			return
		}
		sources = append(sources, statement.BytesSource(fh.Filename, data))
		names = append(names, fh.Filename)
	}

	out, err := s.pipeline.Run(r.Context(), sources)
	if err != nil {
		log.Error().Err(err).Msg("processing upload failed")
		status, msg := describeError(err)
		s.render(w, r, status, "index.html", s.indexPage(msg))
		return
	}

	sess := &Session{Files: names, Rows: view.Build(out.Transactions)}
	for _, perr := range out.Skipped {
		sess.Warnings = append(sess.Warnings, fmt.Sprintf("Arquivo %s ignorado: %v", perr.Source, perr.Err))
	}
	if n := len(out.Failures); n > 0 {
		sess.Warnings = append(sess.Warnings, fmt.Sprintf("%d transação(ões) não classificada(s).", n))
	}
	for _, verr := range view.Validate(sess.Rows, s.labels) {
		log.Warn().Str("check", verr.Rule).Int("row", verr.Row).Msg(verr.Description)
	}

	id := s.store.Add(sess)
	log.Info().Str("session", id).Int("files", len(names)).Int("rows", len(sess.Rows)).
		Int("sessions", s.store.Len()).Msg("session created")
	http.Redirect(w, r, "/s/"+id, http.StatusSeeOther)
}

// describeError maps pipeline errors to a status and a message for the page.
func describeError(err error) (int, string) {
	var (
		perr *statement.ParseError
		terr *pipeline.TypeConversionError
		cerr *pipeline.ClassificationServiceError
	)
	switch {
	case config.IsConfigurationError(err):
		return http.StatusInternalServerError, "Configuração inválida: " + err.Error()
	case errors.As(err, &perr):
		return http.StatusUnprocessableEntity, "Extrato inválido: " + perr.Error()
	case errors.As(err, &terr):
		return http.StatusUnprocessableEntity, "Valor inválido no extrato: " + terr.Error()
	case errors.As(err, &cerr):
		return http.StatusBadGateway, "Falha no serviço de classificação: " + cerr.Error()
	default:
		return http.StatusInternalServerError, "Erro inesperado: " + err.Error()
	}
}

type option struct {
	Value    string
	Selected bool
}

type tableRow struct {
	Date        string
	Description string
	Revenue     string
	Category    string
	Color       string
}

type legendItem struct {
	Category string
	Color    string
	Label    string
}

type sessionPage struct {
	ID         string
	Files      []string
	Warnings   []string
	Months     []option
	Categories []option
	Rows       []tableRow
	Legend     []legendItem
	Chart      template.HTML
	Total      string
	SummaryURL template.URL
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	sel := parseSelection(r.URL.Query(), sess.Rows)
	rows := view.Filter(sess.Rows, sel.months, sel.categories)
	slices := view.ByCategory(rows, s.palette)
	chart, err := Donut(slices)
	if err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Str("session", sess.ID).Msg("chart unavailable")
	}

	page := sessionPage{
		ID:         sess.ID,
		Files:      sess.Files,
		Warnings:   sess.Warnings,
		Months:     options(view.Months(sess.Rows), sel.months),
		Categories: options(view.Categories(sess.Rows), sel.categories),
		Chart:      chart,
		Total:      view.Money(view.Total(rows)),
		SummaryURL: summaryURL(sess.ID, r.URL.Query()),
	}
	for _, row := range rows {
		page.Rows = append(page.Rows, tableRow{
			Date:        row.DisplayDate,
			Description: row.Description,
			Revenue:     view.Money(row.SignedAmount),
			Category:    row.Category,
			Color:       s.palette.Color(row.Category),
		})
	}
	for _, sl := range slices {
		page.Legend = append(page.Legend, legendItem{Category: sl.Category, Color: sl.Color, Label: SliceLabel(sl)})
	}
	s.render(w, r, http.StatusOK, "session.html", page)
}

type summaryRow struct {
	Date           string          `json:"date"`
	DisplayDate    string          `json:"display_date"`
	Month          string          `json:"month"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	AbsoluteAmount decimal.Decimal `json:"absolute_amount"`
	Category       string          `json:"category"`
	Unclassified   bool            `json:"unclassified,omitempty"`
}

type summarySlice struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Share    decimal.Decimal `json:"share"`
	Color    string          `json:"color"`
}

type summary struct {
	ID         string          `json:"id"`
	Months     []string        `json:"months"`
	Categories []string        `json:"categories"`
	Total      decimal.Decimal `json:"total"`
	Rows       []summaryRow    `json:"rows"`
	ByCategory []summarySlice  `json:"by_category"`
	Warnings   []string        `json:"warnings,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get(r.PathValue("id"))
	if sess == nil {
		WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	sel := parseSelection(r.URL.Query(), sess.Rows)
	rows := view.Filter(sess.Rows, sel.months, sel.categories)

	out := summary{
		ID:         sess.ID,
		Months:     sel.months,
		Categories: sel.categories,
		Total:      view.Total(rows),
		Rows:       []summaryRow{},
		ByCategory: []summarySlice{},
		Warnings:   sess.Warnings,
	}
	for _, row := range rows {
		sr := summaryRow{
			DisplayDate:    row.DisplayDate,
			Month:          row.MonthBucket,
			Description:    row.Description,
			Amount:         row.SignedAmount,
			AbsoluteAmount: row.AbsoluteAmount,
			Category:       row.Category,
			Unclassified:   row.Unclassified,
		}
		if !row.Date.IsZero() {
			sr.Date = row.Date.Format("2006-01-02")
		}
		out.Rows = append(out.Rows, sr)
	}
	for _, sl := range view.ByCategory(rows, s.palette) {
		out.ByCategory = append(out.ByCategory, summarySlice{
			Category: sl.Category, Total: sl.Total, Share: sl.Share, Color: sl.Color,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

type selection struct {
	months     []string
	categories []string
}

// parseSelection reads the month and category filters. Until the filter
// form has been submitted (filtered=1) everything is selected; afterwards
// an empty month list selects nothing and an empty category list applies
// no category filter.
func parseSelection(q url.Values, rows []view.Row) selection {
	if q.Get("filtered") != "1" {
		return selection{months: view.Months(rows), categories: view.Categories(rows)}
	}
	return selection{months: nonEmpty(q["month"]), categories: nonEmpty(q["category"])}
}

func summaryURL(id string, q url.Values) template.URL {
	u := url.URL{Path: "/s/" + id + "/summary.json", RawQuery: q.Encode()}
	return template.URL(u.String())
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func options(all, selected []string) []option {
	set := make(map[string]bool, len(selected))
	for _, v := range selected {
		set[v] = true
	}
	opts := make([]option, len(all))
	for i, v := range all {
		opts[i] = option{Value: v, Selected: set[v]}
	}
	return opts
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Str("template", name).Msg("rendering page")
	}
}
