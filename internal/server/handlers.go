package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/superviolin/pkg/buildinfo"
	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/observability"
	"github.com/matzehuels/superviolin/pkg/pipeline"
	"github.com/matzehuels/superviolin/pkg/stats"
)

// Response headers set by the render endpoint.
const (
	CacheHeader    = "X-Cache"
	ReportHeader   = "X-Report-ID"
	WarningsHeader = "X-Warning-Count"
)

// contentTypes maps output formats to MIME types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type statsResponse struct {
	Summary    string            `json:"summary"`
	Comparison *stats.Comparison `json:"comparison"`
	Cached     bool              `json:"cached"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{
		Version:  buildinfo.Version,
		MaxMB:    s.cfg.MaxUploadBytes >> 20,
		Defaults: pipelineDefaults(),
	}); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleRender renders one format of the uploaded table.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	if result.Report != nil {
		id := uuid.NewString()
		if err := s.runner.Cache.Set(r.Context(), reportKey(id), result.Report, reportTTL); err != nil {
			s.logger.Warn("store report", "error", err)
		} else {
			w.Header().Set(ReportHeader, id)
		}
	}
	w.Header().Set(CacheHeader, cacheStatus(result.CacheInfo.RenderHit))
	w.Header().Set(WarningsHeader, strconv.Itoa(len(result.Warnings)))
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "superplot."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// handleStats runs the statistical comparison of the uploaded table.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger

	t, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmp, cached, err := s.runner.StatsWithCacheInfo(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := json.Marshal(statsResponse{Summary: cmp.Test.String(), Comparison: cmp, Cached: cached})
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStatisticalTest, err, "encode comparison"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleReport serves a stored posthoc matrix as a TSV download.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid report id: %q", id))
		return
	}
	data, ok, err := s.runner.Cache.Get(r.Context(), reportKey(id))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "read report"))
		return
	}
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeFileNotFound, "report %s not found or expired", id))
		return
	}
	name := r.URL.Query().Get("value")
	if name == "" {
		name = "value"
	}
	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.ReportFilename(name)))
	_, _ = w.Write(data)
}

func reportKey(id string) string { return keyPrefix + "report:" + id }

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// parseOptions reads the multipart upload and the form options.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if r.ContentLength > s.cfg.MaxUploadBytes {
		return opts, errors.New(errors.ErrCodeInputTooLarge, "upload exceeds %d MB", s.cfg.MaxUploadBytes>>20)
	}
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return opts, uploadError(err, s.cfg.MaxUploadBytes)
	}

	f := form{r: r}
	opts.Demo = f.bool("demo")
	if !opts.Demo {
		file, header, err := r.FormFile("file")
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "a data file is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return opts, uploadError(err, s.cfg.MaxUploadBytes)
		}
		opts.Data = data
		opts.Filename = header.Filename
	}

	opts.Columns.Condition = f.str("condition")
	opts.Columns.Value = f.str("value")
	opts.Columns.Replicate = f.str("replicate")
	opts.DataFormat = f.str("data_format")
	opts.Order = f.str("order")
	opts.ReplicateCentre = f.str("replicate_centre")
	opts.Centre = f.str("centre")
	opts.ErrorBar = f.str("error_bars")
	opts.Paired = f.bool("paired")
	opts.StatsOnPlot = f.bool("stats_on_plot")
	opts.YLimits = f.str("ylim")
	opts.GridSpan = f.str("grid_span")
	opts.DensityMode = f.str("density_mode")
	opts.Palette = f.str("colours")
	opts.Legend = f.bool("legend")
	opts.XLabel = f.str("xlabel")
	opts.YLabel = f.str("ylabel")
	opts.Curves = f.bool("curves")
	opts.Width = f.float("width")
	opts.Bandwidth = f.float("bandwidth")
	opts.LineWidth = f.float("line_width")
	opts.SepLineWidth = f.float("sep_line_width")
	opts.DPI = f.int("dpi")
	if seed := f.str("seed"); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			f.fail("seed", seed)
		}
		opts.Seed = v
	}
	if opts.Demo {
		opts.Columns = dataset.DefaultColumns()
		opts.DataFormat = ""
		opts.Order = ""
	}
	if opts.YLabel == "" {
		opts.YLabel = opts.Columns.WithDefaults().Value
	}

	format := f.str("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}

	if f.err != nil {
		return opts, f.err
	}
	return opts, nil
}

// form reads typed values from a parsed request form, keeping the first
// conversion error.
type form struct {
	r   *http.Request
	err error
}

func (f *form) str(name string) string {
	return strings.TrimSpace(f.r.FormValue(name))
}

func (f *form) fail(name, value string) {
	if f.err == nil {
		f.err = errors.New(errors.ErrCodeInvalidInput, "invalid value for %s: %q", name, value)
	}
}

func (f *form) bool(name string) bool {
	v := f.str(name)
	switch strings.ToLower(v) {
	case "":
		return false
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		f.fail(name, v)
	}
	return b
}

func (f *form) float(name string) float64 {
	v := f.str(name)
	if v == "" {
		return 0
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(name, v)
	}
	return x
}

func (f *form) int(name string) int {
	v := f.str(name)
	if v == "" {
		return 0
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		f.fail(name, v)
	}
	return x
}

func uploadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(errors.ErrCodeInputTooLarge, "upload exceeds %d MB", limit>>20)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeNotEnoughColor:
		return http.StatusBadRequest
	case errors.ErrCodeMissingColumn, errors.ErrCodeInsufficientData, errors.ErrCodeDensityFit,
		errors.ErrCodeDegenerateDomain, errors.ErrCodeNormalization, errors.ErrCodeStatisticalTest:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client as JSON and to the HTTP hooks.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	id := requestIDFrom(r.Context())
	observability.HTTP().OnError(r.Context(), id, r.Method, r.URL.Path, err)

	status := statusFor(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code, RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
