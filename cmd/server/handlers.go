package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"stockinfo/internal/aggregate"
	"stockinfo/internal/codes"
	"stockinfo/internal/config"
	"stockinfo/internal/market"
	"stockinfo/internal/provider"
	"stockinfo/internal/report"
)

type server struct {
	cfg config.Config
	gw  provider.Gateway
	log zerolog.Logger
	now func() time.Time
}

func newRouter(cfg config.Config, gw provider.Gateway, log zerolog.Logger) http.Handler {
	s := &server{cfg: cfg, gw: gw, log: log.With().Str("component", "server").Logger(), now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	// gzip wraps recovery so a 500 is written before the gzip stream closes.
	r.Use(withGzip)
	r.Use(s.recoverPanic)
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleGetReport)
		r.Post("/report", s.handlePostReport)
	})
	return r
}

type reportBody struct {
	Codes      []string `json:"codes"`
	Attributes []string `json:"attributes"`
	Market     string   `json:"market"`
}

func (s *server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.writeReport(w, r.Context(), reportBody{
		Codes:      codes.Split(q.Get("codes")),
		Attributes: codes.Split(q.Get("attrs")),
		Market:     q.Get("market"),
	})
}

func (s *server) handlePostReport(w http.ResponseWriter, r *http.Request) {
	var b reportBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeReport(w, r.Context(), b)
}

func (s *server) writeReport(w http.ResponseWriter, rctx context.Context, b reportBody) {
	list, err := codes.Normalize(b.Codes, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "no valid codes")
		return
	}
	if limit := s.cfg.Server.MaxCodes; len(list) > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many codes (max %d)", limit))
		return
	}
	req, err := aggregate.ParseRequest(b.Attributes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Any() {
		writeError(w, http.StatusBadRequest, "no attributes requested (price, eps, bps, div, yield)")
		return
	}
	token := b.Market
	if token == "" {
		token = s.cfg.Market.Override
	}
	override, err := market.Parse(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(rctx, s.cfg.RequestTimeout())
	defer cancel()

	agg := aggregate.New(aggregate.Config{
		Override:       override,
		DomesticSuffix: s.cfg.Market.DomesticSuffix,
		Fallbacks:      s.cfg.FallbackTable(),
		Concurrency:    s.cfg.Fetch.Concurrency,
		Timeout:        s.cfg.FetchTimeout(),
	}, s.gw, s.log.With().Str("request_id", middleware.GetReqID(rctx)).Logger(), aggregate.WithClock(s.now))
	batch := agg.AggregateAll(ctx, list, req)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report.NewDocument(batch, s.now())); err != nil {
		s.log.Error().Err(err).Msg("encode report")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// recoverPanic protects handlers from panics.
func (s *server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

var gzPool = sync.Pool{New: func() any {
	w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
	return w
}}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request bodies at 1MB.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
